package out

import (
	"context"

	"fieldcap/internal/modules/gallery/domain"
)

// PhotoLog is the durable, head-inserted list of photo records.
type PhotoLog interface {
	Append(ctx context.Context, record domain.PhotoRecord) error
	All(ctx context.Context) ([]domain.PhotoRecord, error)
	RemoveWhere(ctx context.Context, match func(domain.PhotoRecord) bool) (int, error)
}
