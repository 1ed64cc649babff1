package domain

import (
	"strconv"
	"time"
)

const singlePrefix = "single-"

// Session tracks the confirmed shots of one capture session. It only lives in memory.
type Session struct {
	ID    string
	Count int
	Multi bool
}

func NewMultiSession(now time.Time) *Session {
	return &Session{ID: strconv.FormatInt(now.UnixMilli(), 10), Multi: true}
}

func SingleSessionID(now time.Time) string {
	return singlePrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// Sequence is the position the next confirmed shot takes within the session, starting at 1.
func (s *Session) Sequence() int {
	if s == nil {
		return 1
	}
	return s.Count + 1
}
