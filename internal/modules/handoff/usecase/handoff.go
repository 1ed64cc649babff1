package usecase

import (
	"context"

	"fieldcap/internal/modules/handoff/domain"
	"fieldcap/internal/modules/handoff/dto"
	handoffin "fieldcap/internal/modules/handoff/port/in"
	"fieldcap/internal/modules/handoff/service"
)

type Interactor struct {
	svc *service.HandoffService
}

func NewInteractor(svc *service.HandoffService) handoffin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Publish(ctx context.Context, input dto.PublishInput) (dto.PublishOutput, error) {
	payload, replaced, err := i.svc.Publish(ctx, input.PrimaryID, input.Latitude, input.Longitude, input.Location, input.ImageIDs, input.Timestamp)
	if err != nil {
		return dto.PublishOutput{}, err
	}
	return dto.PublishOutput{Payload: toOutput(payload), Replaced: replaced}, nil
}

func (i *Interactor) Peek(ctx context.Context) (dto.PayloadOutput, error) {
	payload, err := i.svc.Peek(ctx)
	if err != nil {
		return dto.PayloadOutput{}, err
	}
	return toOutput(payload), nil
}

func (i *Interactor) Consume(ctx context.Context) (dto.PayloadOutput, error) {
	payload, err := i.svc.Consume(ctx)
	if err != nil {
		return dto.PayloadOutput{}, err
	}
	return toOutput(payload), nil
}

func toOutput(p domain.Payload) dto.PayloadOutput {
	return dto.PayloadOutput{
		PrimaryGeoImageID: p.PrimaryGeoImageID,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		Location:          p.Location,
		TotalImages:       p.TotalImages,
		ImageIDs:          p.ImageIDs,
		Timestamp:         p.Timestamp,
	}
}
