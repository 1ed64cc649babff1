package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	galleryout "fieldcap/internal/modules/gallery/adapter/out"
	"fieldcap/internal/modules/gallery/domain"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/kv"
)

func TestAppendInsertsAtHeadAndAllReturnsVerbatim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := kv.NewSQLiteStore(filepath.Join(t.TempDir(), "fieldcap.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	log := galleryout.NewKVPhotoLog(store, nil)

	acc := 4.5
	first := domain.PhotoRecord{ID: 1, URI: "file:///a.jpg", Lat: 1.5, Lon: 2.5, Acc: &acc, CreatedAt: "2025-03-20T10:00:00.000Z", SessionID: domain.StringPtr("S1")}
	second := domain.PhotoRecord{ID: 2, URI: "https://cdn/b.jpg", CreatedAt: "2025-03-20T09:00:00.000Z"}
	if err := log.Append(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := log.Append(ctx, second); err != nil {
		t.Fatalf("append second: %v", err)
	}
	all, err := log.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all[0].ID != 2 || all[1].ID != 1 {
		t.Fatalf("expected most-recent-insert-first, got %+v", all)
	}
	if all[1].Acc == nil || *all[1].Acc != 4.5 || all[1].Session() != "S1" {
		t.Fatalf("record fields not preserved: %+v", all[1])
	}

	if err := log.Append(ctx, first); !errors.Is(err, apperrors.ErrDuplicatePhoto) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestStoredLayoutIsCompatibleJSONArray(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	log := galleryout.NewKVPhotoLog(store, nil)
	if err := log.Append(ctx, domain.PhotoRecord{ID: 42, URI: "file:///x.jpg", CreatedAt: "2025-01-01T00:00:00.000Z"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entry, err := store.Get(ctx, "photos")
	if err != nil {
		t.Fatalf("get raw: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(entry.Value, &raw); err != nil {
		t.Fatalf("stored value is not a json array: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected one stored record, got %d", len(raw))
	}
	if _, has := raw[0]["sessionId"]; has {
		t.Fatalf("legacy record must omit sessionId: %v", raw[0])
	}
	if v, has := raw[0]["acc"]; !has || v != nil {
		t.Fatalf("absent accuracy must be stored as null: %v", raw[0])
	}
	for _, key := range []string{"id", "uri", "lat", "lon", "createdAt"} {
		if _, has := raw[0][key]; !has {
			t.Fatalf("missing key %s in %v", key, raw[0])
		}
	}
}

func TestRemoveWhereDropsOnlyMatchingRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := galleryout.NewKVPhotoLog(kv.NewMemoryStore(), nil)
	for i, session := range []string{"S1", "S2", "S1"} {
		rec := domain.PhotoRecord{ID: int64(i + 1), CreatedAt: "2025-01-01T00:00:00Z", SessionID: domain.StringPtr(session)}
		if err := log.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	removed, err := log.RemoveWhere(ctx, domain.SelectFolders([]string{"S1"}))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	all, _ := log.All(ctx)
	if len(all) != 1 || all[0].Session() != "S2" {
		t.Fatalf("unexpected remainder %+v", all)
	}
}
