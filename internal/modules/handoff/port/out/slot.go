package out

import (
	"context"

	"fieldcap/internal/modules/handoff/domain"
)

// PayloadSlot holds at most one pending payload.
type PayloadSlot interface {
	Save(ctx context.Context, payload domain.Payload) (replaced bool, err error)
	Load(ctx context.Context) (domain.Payload, bool, error)
	Take(ctx context.Context) (domain.Payload, bool, error)
}
