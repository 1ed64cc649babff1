package out

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/handoff/domain"
	handoffout "fieldcap/internal/modules/handoff/port/out"
	"fieldcap/internal/platform/kv"
)

type KVPayloadSlot struct {
	slot *kv.Slot[domain.Payload]
}

func NewKVPayloadSlot(store kv.Store, logger hclog.Logger) handoffout.PayloadSlot {
	return &KVPayloadSlot{slot: kv.NewSlot[domain.Payload](store, domain.SlotKey, logger)}
}

func (s *KVPayloadSlot) Save(ctx context.Context, payload domain.Payload) (bool, error) {
	return s.slot.Save(ctx, payload)
}

func (s *KVPayloadSlot) Load(ctx context.Context) (domain.Payload, bool, error) {
	payload, ok := s.slot.Load(ctx)
	return payload, ok, nil
}

func (s *KVPayloadSlot) Take(ctx context.Context) (domain.Payload, bool, error) {
	return s.slot.Take(ctx)
}
