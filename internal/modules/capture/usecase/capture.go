package usecase

import (
	"context"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/capture/domain"
	"fieldcap/internal/modules/capture/dto"
	capturein "fieldcap/internal/modules/capture/port/in"
	captureout "fieldcap/internal/modules/capture/port/out"
	"fieldcap/internal/modules/capture/service"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/logging"
)

const defaultIdentityTimeout = 5 * time.Second

type Interactor struct {
	coord           *service.Coordinator
	identity        captureout.Identity
	identityTimeout time.Duration
	logger          hclog.Logger
}

func NewInteractor(coord *service.Coordinator, identity captureout.Identity, identityTimeout time.Duration, logger hclog.Logger) capturein.Usecase {
	if identityTimeout <= 0 {
		identityTimeout = defaultIdentityTimeout
	}
	return &Interactor{coord: coord, identity: identity, identityTimeout: identityTimeout, logger: logging.OrDiscard(logger)}
}

// Start resolves the enumerator once for the whole flow, then starts the coordinator.
func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StatusOutput, error) {
	flow := i.resolveFlow(ctx, input.ExpectHandoff)
	status, err := i.coord.Start(ctx, flow)
	return toStatus(status), explain(err)
}

func (i *Interactor) Stop(context.Context) error {
	i.coord.Stop()
	return nil
}

func (i *Interactor) Status(context.Context) dto.StatusOutput {
	return toStatus(i.coord.Status())
}

func (i *Interactor) ToggleFreeze(context.Context) (dto.StatusOutput, error) {
	return toStatus(i.coord.ToggleFreeze()), nil
}

func (i *Interactor) SetAccuracyThreshold(_ context.Context, meters int) (dto.StatusOutput, error) {
	return toStatus(i.coord.SetAccuracyThreshold(meters)), nil
}

func (i *Interactor) RefreshLocation(ctx context.Context) (dto.StatusOutput, error) {
	status, err := i.coord.RefreshLocation(ctx)
	return toStatus(status), explain(err)
}

func (i *Interactor) Shutter(ctx context.Context) (dto.StatusOutput, error) {
	status, err := i.coord.Shutter(ctx)
	return toStatus(status), explain(err)
}

func (i *Interactor) Cancel(context.Context) (dto.StatusOutput, error) {
	status, err := i.coord.Cancel()
	return toStatus(status), explain(err)
}

func (i *Interactor) Confirm(ctx context.Context) (dto.ConfirmOutput, error) {
	result, err := i.coord.Confirm(ctx)
	if err != nil {
		return dto.ConfirmOutput{}, explain(err)
	}
	return dto.ConfirmOutput{
		PhotoID:      result.PhotoID,
		URI:          result.URI,
		QRPayload:    result.QRPayload,
		Storage:      string(result.Storage),
		SessionID:    result.SessionID,
		SessionCount: result.SessionCount,
		Lat:          result.Position.Lat,
		Lon:          result.Position.Lon,
		Next:         string(result.Next),
	}, nil
}

func (i *Interactor) ToggleMulti(context.Context) (dto.StatusOutput, error) {
	return toStatus(i.coord.ToggleMulti()), nil
}

func (i *Interactor) Finish(ctx context.Context) (dto.FinishOutput, error) {
	result, err := i.coord.Finish(ctx)
	if err != nil {
		return dto.FinishOutput{}, explain(err)
	}
	return dto.FinishOutput{SessionID: result.SessionID, Count: result.Count, ImageIDs: result.ImageIDs, Next: string(result.Next)}, nil
}

func (i *Interactor) RetryCameraPermission(ctx context.Context) (dto.StatusOutput, error) {
	status, err := i.coord.RetryCameraPermission(ctx)
	return toStatus(status), explain(err)
}

func (i *Interactor) SessionRecords(ctx context.Context, sessionID string) ([]dto.RemoteRecordOutput, error) {
	records, err := i.coord.SessionRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RemoteRecordOutput, 0, len(records))
	for _, r := range records {
		out = append(out, dto.RemoteRecordOutput{
			ID:         r.ID,
			SessionID:  r.SessionID,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			ImageURL:   r.ImageURL,
			Storage:    r.Storage,
			Sequence:   r.Sequence,
			IsPrimary:  r.IsPrimary,
			CapturedAt: r.CapturedAt,
		})
	}
	return out, nil
}

func (i *Interactor) resolveFlow(ctx context.Context, expectHandoff bool) domain.FlowContext {
	flow := domain.FlowContext{ExpectHandoff: expectHandoff}
	if i.identity == nil {
		return flow
	}
	ctx, cancel := context.WithTimeout(ctx, i.identityTimeout)
	defer cancel()
	userID, ok, err := i.identity.CurrentUserID(ctx)
	if err != nil {
		i.logger.Warn("identity lookup failed", "error", err)
		return flow
	}
	if !ok {
		i.logger.Warn("no signed-in enumerator")
		return flow
	}
	flow.UserID, flow.Resolved = userID, true
	return flow
}

// explain attaches the enumerator-facing message; errors.Is still sees the cause.
func explain(err error) error {
	if err == nil {
		return nil
	}
	return &dto.UserError{Message: domain.UserMessage(err), Err: err}
}

func toStatus(s domain.Status) dto.StatusOutput {
	notice := ""
	switch {
	case s.CameraDenied:
		notice = domain.UserMessage(apperrors.ErrCameraPermissionDenied)
	case s.LocationDenied:
		notice = domain.UserMessage(apperrors.ErrLocationPermissionDenied)
	}
	return dto.StatusOutput{
		Notice:            notice,
		State:             string(s.State),
		Live:              toPosition(s.Live),
		Frozen:            toPosition(s.Frozen),
		Location:          s.Location,
		AccuracyThreshold: s.AccuracyThreshold,
		Multi:             s.Multi,
		SessionID:         s.SessionID,
		SessionCount:      s.SessionCount,
		LocationDenied:    s.LocationDenied,
		CameraDenied:      s.CameraDenied,
		Identified:        s.Identified,
	}
}

func toPosition(p *domain.Position) *dto.PositionOutput {
	if p == nil {
		return nil
	}
	return &dto.PositionOutput{Lat: p.Lat, Lon: p.Lon, Accuracy: p.Accuracy}
}
