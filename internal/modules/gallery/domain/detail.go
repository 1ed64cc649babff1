package domain

import (
	"sort"
	"time"
)

// DetailTier reports which lookup resolved a detail key.
type DetailTier string

const (
	TierNone    DetailTier = "none"
	TierSession DetailTier = "session"
	TierDay     DetailTier = "day"
)

// Detail resolves key to photo records, oldest first. Session ids are tried first; only when
// no record carries that session id is key treated as a local calendar day (YYYY-MM-DD). The
// day tier can merge unrelated captures from the same day.
func Detail(records []PhotoRecord, key string, loc *time.Location) ([]PhotoRecord, DetailTier) {
	matched := []PhotoRecord{}
	for _, record := range records {
		if record.SessionID != nil && *record.SessionID == key {
			matched = append(matched, record)
		}
	}
	tier := TierSession
	if len(matched) == 0 {
		tier = TierDay
		for _, record := range records {
			if day := record.DayKey(loc); day != "" && day == key {
				matched = append(matched, record)
			}
		}
	}
	if len(matched) == 0 {
		return matched, TierNone
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, aok := matched[i].CapturedAt()
		b, bok := matched[j].CapturedAt()
		return olderFirst(a, aok, b, bok)
	})
	return matched, tier
}

// InSession returns the records of sessionID in insertion order (the log stores newest
// insert first, so this walks it backwards).
func InSession(records []PhotoRecord, sessionID string) []PhotoRecord {
	out := []PhotoRecord{}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].SessionID != nil && *records[i].SessionID == sessionID {
			out = append(out, records[i])
		}
	}
	return out
}

// SelectFolders builds the predicate used to delete every member of the given folders.
func SelectFolders(ids []string) func(PhotoRecord) bool {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	return func(record PhotoRecord) bool {
		_, ok := selected[record.FolderID()]
		return ok
	}
}

type Stats struct {
	Folders       int
	LegacyFolders int
	Photos        int
	RemotePhotos  int
	LocalPhotos   int
}

func Summarize(records []PhotoRecord) Stats {
	stats := Stats{Photos: len(records)}
	for _, folder := range Group(records) {
		stats.Folders++
		if folder.Legacy() {
			stats.LegacyFolders++
		}
	}
	for _, record := range records {
		if record.Remote() {
			stats.RemotePhotos++
		} else {
			stats.LocalPhotos++
		}
	}
	return stats
}
