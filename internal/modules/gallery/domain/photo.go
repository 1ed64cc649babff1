package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	// PhotosKey is the local store key holding the photo log, most-recent-insert-first.
	PhotosKey    = "photos"
	LegacyPrefix = "legacy-"
)

// PhotoRecord is one captured photograph. SessionID is nil for records captured before
// grouping existed.
type PhotoRecord struct {
	ID        int64    `json:"id"`
	URI       string   `json:"uri"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Acc       *float64 `json:"acc"`
	CreatedAt string   `json:"createdAt"`
	SessionID *string  `json:"sessionId,omitempty"`
}

// FolderID is the grouping key: the session id, or legacy-<id> so every legacy photo is its
// own folder.
func (p PhotoRecord) FolderID() string {
	if p.SessionID != nil {
		return *p.SessionID
	}
	return LegacyPrefix + strconv.FormatInt(p.ID, 10)
}

func (p PhotoRecord) Session() string {
	if p.SessionID == nil {
		return ""
	}
	return *p.SessionID
}

// CapturedAt parses CreatedAt. ok is false for missing or malformed timestamps.
func (p PhotoRecord) CapturedAt() (time.Time, bool) {
	return ParseTimestamp(p.CreatedAt)
}

// Remote reports whether the URI points at uploaded storage rather than the device.
func (p PhotoRecord) Remote() bool {
	uri := strings.ToLower(p.URI)
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayKey is the local calendar day (YYYY-MM-DD) a record was captured on, or "".
func (p PhotoRecord) DayKey(loc *time.Location) string {
	t, ok := p.CapturedAt()
	if !ok {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

func StringPtr(s string) *string { return &s }

// newerFirst orders parsed timestamps descending; unparseable ones go last.
func newerFirst(a time.Time, aok bool, b time.Time, bok bool) bool {
	if aok != bok {
		return aok
	}
	if !aok {
		return false
	}
	return a.After(b)
}

// olderFirst orders parsed timestamps ascending; unparseable ones still go last.
func olderFirst(a time.Time, aok bool, b time.Time, bok bool) bool {
	if aok != bok {
		return aok
	}
	if !aok {
		return false
	}
	return a.Before(b)
}
