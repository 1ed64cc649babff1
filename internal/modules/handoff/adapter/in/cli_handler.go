package in

import (
	"context"

	"fieldcap/internal/modules/handoff/dto"
	handoffin "fieldcap/internal/modules/handoff/port/in"
)

type CLIHandler struct {
	usecase handoffin.Usecase
}

func NewCLIHandler(usecase handoffin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (dto.PayloadOutput, error) {
	return h.usecase.Peek(ctx)
}

func (h CLIHandler) Consume(ctx context.Context) (dto.PayloadOutput, error) {
	return h.usecase.Consume(ctx)
}
