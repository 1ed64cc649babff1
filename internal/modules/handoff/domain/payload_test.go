package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"fieldcap/internal/modules/handoff/domain"
	apperrors "fieldcap/internal/platform/errors"
)

func TestNewPayloadSerializesNumbersAsStrings(t *testing.T) {
	t.Parallel()
	payload, err := domain.NewPayload(0, 12.3456789, -1.5, "Nairobi", []int64{101, 102, 103}, "2025-03-20T10:00:00.000Z")
	if err != nil {
		t.Fatalf("new payload: %v", err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]string{
		"primaryGeoImageId": "101",
		"latitude":          "12.345679",
		"longitude":         "-1.500000",
		"location":          "Nairobi",
		"totalImages":       "3",
		"imageIds":          "101,102,103",
		"timestamp":         "2025-03-20T10:00:00.000Z",
	}
	for key, value := range want {
		got, ok := fields[key].(string)
		if !ok || got != value {
			t.Fatalf("%s: expected string %q, got %#v", key, value, fields[key])
		}
	}
	if !payload.Multi() {
		t.Fatalf("three images should be a multi-image payload")
	}
	if ids := payload.IDs(); len(ids) != 3 || ids[2] != 103 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestNewPayloadSingleImage(t *testing.T) {
	t.Parallel()
	payload, err := domain.NewPayload(7, 0, 0, "", []int64{7}, "2025-03-20T10:00:00.000Z")
	if err != nil {
		t.Fatalf("new payload: %v", err)
	}
	if payload.Multi() || payload.TotalImages != "1" || payload.ImageIDs != "7" {
		t.Fatalf("unexpected single payload %+v", payload)
	}
}

func TestNewPayloadRequiresImages(t *testing.T) {
	t.Parallel()
	if _, err := domain.NewPayload(1, 0, 0, "", nil, ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
