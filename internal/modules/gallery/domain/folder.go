package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "fieldcap/internal/platform/errors"
)

// Folder is a read-time grouping of photo records sharing a FolderID. It is never stored.
type Folder struct {
	ID        string
	Cover     string
	When      string
	Count     int
	MemberIDs []int64

	at   time.Time
	atOK bool
}

func (f Folder) Legacy() bool {
	return strings.HasPrefix(f.ID, LegacyPrefix)
}

// At is the parsed When. ok is false when the newest member had no usable timestamp.
func (f Folder) At() (time.Time, bool) {
	return f.at, f.atOK
}

// DetailKey is the identifier to resolve this folder's members with Detail: the session id,
// or for legacy folders the local calendar day of When.
func (f Folder) DetailKey(loc *time.Location) string {
	if !f.Legacy() {
		return f.ID
	}
	if !f.atOK {
		return ""
	}
	return f.at.In(loc).Format("2006-01-02")
}

type member struct {
	record PhotoRecord
	at     time.Time
	ok     bool
}

// Group partitions records into folders, newest folder first. Within a folder the newest
// member (by parsed CreatedAt, not string order) supplies Cover and When.
func Group(records []PhotoRecord) []Folder {
	buckets := map[string][]member{}
	order := []string{}
	for _, record := range records {
		key := record.FolderID()
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		at, ok := record.CapturedAt()
		buckets[key] = append(buckets[key], member{record: record, at: at, ok: ok})
	}

	folders := make([]Folder, 0, len(order))
	for _, key := range order {
		members := buckets[key]
		sort.SliceStable(members, func(i, j int) bool {
			return newerFirst(members[i].at, members[i].ok, members[j].at, members[j].ok)
		})
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.record.ID)
		}
		head := members[0]
		folders = append(folders, Folder{
			ID:        key,
			Cover:     head.record.URI,
			When:      head.record.CreatedAt,
			Count:     len(members),
			MemberIDs: ids,
			at:        head.at,
			atOK:      head.ok,
		})
	}
	return SortFolders(folders, SortNewest)
}

type SortMode string

const (
	SortNewest   SortMode = "newest"
	SortOldest   SortMode = "oldest"
	SortLargest  SortMode = "largest"
	SortSmallest SortMode = "smallest"
)

func ParseSortMode(raw string) (SortMode, error) {
	switch mode := SortMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortLargest, SortSmallest:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: unsupported sort mode %q", apperrors.ErrInvalidInput, raw)
	}
}

// SortFolders returns a sorted copy. Size modes tie-break on When, newest first.
func SortFolders(folders []Folder, mode SortMode) []Folder {
	out := append([]Folder(nil), folders...)
	newer := func(a, b Folder) bool { return newerFirst(a.at, a.atOK, b.at, b.atOK) }
	var less func(a, b Folder) bool
	switch mode {
	case SortOldest:
		less = func(a, b Folder) bool { return olderFirst(a.at, a.atOK, b.at, b.atOK) }
	case SortLargest:
		less = func(a, b Folder) bool {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return newer(a, b)
		}
	case SortSmallest:
		less = func(a, b Folder) bool {
			if a.Count != b.Count {
				return a.Count < b.Count
			}
			return newer(a, b)
		}
	default:
		less = newer
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

const (
	localizedDateLayout     = "1/2/2006"
	localizedDateTimeLayout = "1/2/2006, 3:04:05 PM"
)

// Matches is a case-insensitive substring match of query against the folder's localized date,
// localized date-time and ISO day (YYYY-MM-DD, UTC) representations. An empty query matches.
func (f Folder) Matches(query string, loc *time.Location) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, candidate := range f.searchKeys(loc) {
		if strings.Contains(strings.ToLower(candidate), q) {
			return true
		}
	}
	return false
}

func (f Folder) searchKeys(loc *time.Location) []string {
	if !f.atOK {
		if len(f.When) >= 10 {
			return []string{f.When[:10]}
		}
		return nil
	}
	local := f.at.In(loc)
	return []string{
		local.Format(localizedDateLayout),
		local.Format(localizedDateTimeLayout),
		f.at.UTC().Format("2006-01-02"),
	}
}

// Filter keeps the folders matching query, preserving order.
func Filter(folders []Folder, query string, loc *time.Location) []Folder {
	out := make([]Folder, 0, len(folders))
	for _, folder := range folders {
		if folder.Matches(query, loc) {
			out = append(out, folder)
		}
	}
	return out
}
