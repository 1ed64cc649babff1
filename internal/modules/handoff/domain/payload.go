package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "fieldcap/internal/platform/errors"
)

// SlotKey is the record-store key holding the single pending payload.
const SlotKey = "geo_handoff"

// Payload summarizes a finished capture for the form that started it. Every numeric field is
// stored as a string to stay compatible with existing stored slots.
type Payload struct {
	PrimaryGeoImageID string `json:"primaryGeoImageId"`
	Latitude          string `json:"latitude"`
	Longitude         string `json:"longitude"`
	Location          string `json:"location"`
	TotalImages       string `json:"totalImages"`
	ImageIDs          string `json:"imageIds"`
	Timestamp         string `json:"timestamp"`
}

// NewPayload builds a payload from typed values. imageIDs must be non-empty; the primary
// image is the first one unless primary is set explicitly.
func NewPayload(primary int64, lat, lon float64, location string, imageIDs []int64, timestamp string) (Payload, error) {
	if len(imageIDs) == 0 {
		return Payload{}, fmt.Errorf("%w: hand-off needs at least one image", apperrors.ErrInvalidInput)
	}
	if primary == 0 {
		primary = imageIDs[0]
	}
	ids := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return Payload{
		PrimaryGeoImageID: strconv.FormatInt(primary, 10),
		Latitude:          FormatCoordinate(lat),
		Longitude:         FormatCoordinate(lon),
		Location:          location,
		TotalImages:       strconv.Itoa(len(imageIDs)),
		ImageIDs:          strings.Join(ids, ","),
		Timestamp:         timestamp,
	}, nil
}

func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// IDs parses ImageIDs back into numbers, skipping blanks and anything non-numeric.
func (p Payload) IDs() []int64 {
	out := []int64{}
	for _, part := range strings.Split(p.ImageIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (p Payload) Multi() bool {
	n, err := strconv.Atoi(p.TotalImages)
	return err == nil && n > 1
}
