package service

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/handoff/domain"
	handoffout "fieldcap/internal/modules/handoff/port/out"
	"fieldcap/internal/platform/clock"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/logging"
)

// HandoffService is a read-once channel of depth one. A second Publish before Consume
// replaces the pending payload; that is logged but allowed.
type HandoffService struct {
	clock  clock.Clock
	slot   handoffout.PayloadSlot
	logger hclog.Logger
}

func NewHandoffService(clock clock.Clock, slot handoffout.PayloadSlot, logger hclog.Logger) *HandoffService {
	return &HandoffService{clock: clock, slot: slot, logger: logging.OrDiscard(logger)}
}

func (s *HandoffService) Publish(ctx context.Context, primary int64, lat, lon float64, location string, imageIDs []int64, timestamp string) (domain.Payload, bool, error) {
	if timestamp == "" {
		timestamp = clock.Stamp(s.clock.Now())
	}
	payload, err := domain.NewPayload(primary, lat, lon, location, imageIDs, timestamp)
	if err != nil {
		return domain.Payload{}, false, err
	}
	replaced, err := s.slot.Save(ctx, payload)
	if err != nil {
		return domain.Payload{}, false, fmt.Errorf("write hand-off: %w", err)
	}
	if replaced {
		s.logger.Warn("pending hand-off overwritten before it was consumed", "primary", payload.PrimaryGeoImageID)
	}
	s.logger.Debug("hand-off published", "primary", payload.PrimaryGeoImageID, "images", payload.TotalImages)
	return payload, replaced, nil
}

// Peek returns the pending payload without consuming it.
func (s *HandoffService) Peek(ctx context.Context) (domain.Payload, error) {
	payload, ok, err := s.slot.Load(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("read hand-off: %w", err)
	}
	if !ok {
		return domain.Payload{}, apperrors.ErrNoHandoff
	}
	return payload, nil
}

// Consume returns the pending payload and clears the slot.
func (s *HandoffService) Consume(ctx context.Context) (domain.Payload, error) {
	payload, ok, err := s.slot.Take(ctx)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("consume hand-off: %w", err)
	}
	if !ok {
		return domain.Payload{}, apperrors.ErrNoHandoff
	}
	return payload, nil
}
