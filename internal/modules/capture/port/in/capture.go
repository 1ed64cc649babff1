package in

import (
	"context"

	"fieldcap/internal/modules/capture/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StatusOutput, error)
	Stop(ctx context.Context) error
	Status(ctx context.Context) dto.StatusOutput
	ToggleFreeze(ctx context.Context) (dto.StatusOutput, error)
	SetAccuracyThreshold(ctx context.Context, meters int) (dto.StatusOutput, error)
	RefreshLocation(ctx context.Context) (dto.StatusOutput, error)
	Shutter(ctx context.Context) (dto.StatusOutput, error)
	Cancel(ctx context.Context) (dto.StatusOutput, error)
	Confirm(ctx context.Context) (dto.ConfirmOutput, error)
	ToggleMulti(ctx context.Context) (dto.StatusOutput, error)
	Finish(ctx context.Context) (dto.FinishOutput, error)
	RetryCameraPermission(ctx context.Context) (dto.StatusOutput, error)
	SessionRecords(ctx context.Context, sessionID string) ([]dto.RemoteRecordOutput, error)
}
