package in

import (
	"context"

	"fieldcap/internal/modules/handoff/dto"
)

type Usecase interface {
	Publish(ctx context.Context, input dto.PublishInput) (dto.PublishOutput, error)
	Peek(ctx context.Context) (dto.PayloadOutput, error)
	Consume(ctx context.Context) (dto.PayloadOutput, error)
}
