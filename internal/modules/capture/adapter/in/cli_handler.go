package in

import (
	"context"
	"fmt"

	"fieldcap/internal/modules/capture/dto"
	capturein "fieldcap/internal/modules/capture/port/in"
)

type CLIHandler struct {
	usecase capturein.Usecase
}

func NewCLIHandler(usecase capturein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Run drives one capture flow: start, optional freeze and multi-shot, Shots shutter+confirm
// cycles, and finish when in multi-shot mode. The flow is always stopped before returning.
func (h CLIHandler) Run(ctx context.Context, input dto.RunInput) (dto.RunOutput, error) {
	if input.Shots < 1 {
		return dto.RunOutput{}, fmt.Errorf("at least one shot is required")
	}
	if !input.Multi && input.Shots > 1 {
		return dto.RunOutput{}, fmt.Errorf("more than one shot needs multi-shot mode")
	}
	out := dto.RunOutput{}
	status, err := h.usecase.Start(ctx, dto.StartInput{ExpectHandoff: input.Handoff})
	defer func() { _ = h.usecase.Stop(context.Background()) }()
	if err != nil {
		return out, err
	}
	if input.Accuracy != 0 {
		if status, err = h.usecase.SetAccuracyThreshold(ctx, input.Accuracy); err != nil {
			return out, err
		}
	}
	if input.Freeze {
		if status, err = h.usecase.ToggleFreeze(ctx); err != nil {
			return out, err
		}
	}
	if input.Multi {
		if status, err = h.usecase.ToggleMulti(ctx); err != nil {
			return out, err
		}
	}
	out.Status = status
	for i := 0; i < input.Shots; i++ {
		if _, err := h.usecase.Shutter(ctx); err != nil {
			return out, err
		}
		confirmed, err := h.usecase.Confirm(ctx)
		if err != nil {
			return out, err
		}
		out.Captures = append(out.Captures, confirmed)
	}
	if input.Multi {
		finish, err := h.usecase.Finish(ctx)
		if err != nil {
			return out, err
		}
		out.Finish = &finish
	}
	out.Status = h.usecase.Status(ctx)
	return out, nil
}

func (h CLIHandler) SessionRecords(ctx context.Context, sessionID string) ([]dto.RemoteRecordOutput, error) {
	return h.usecase.SessionRecords(ctx, sessionID)
}
