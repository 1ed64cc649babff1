package kv_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/kv"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newSQLite(t *testing.T) *kv.SQLiteStore {
	t.Helper()
	store, err := kv.NewSQLiteStore(filepath.Join(t.TempDir(), ".fieldcap", "fieldcap.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteCompareAndSwapVersions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSQLite(t)

	if _, err := store.Get(ctx, "photos"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on empty store, got %v", err)
	}
	v1, err := store.CompareAndSwap(ctx, "photos", 0, []byte(`[]`))
	if err != nil || v1 != 1 {
		t.Fatalf("first insert: version=%d err=%v", v1, err)
	}
	if _, err := store.CompareAndSwap(ctx, "photos", 0, []byte(`[1]`)); !errors.Is(err, apperrors.ErrVersionConflict) {
		t.Fatalf("insert over existing key must conflict, got %v", err)
	}
	v2, err := store.CompareAndSwap(ctx, "photos", 1, []byte(`[1]`))
	if err != nil || v2 != 2 {
		t.Fatalf("update: version=%d err=%v", v2, err)
	}
	if _, err := store.CompareAndSwap(ctx, "photos", 1, []byte(`[2]`)); !errors.Is(err, apperrors.ErrVersionConflict) {
		t.Fatalf("stale update must conflict, got %v", err)
	}
	entry, err := store.Get(ctx, "photos")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(entry.Value) != `[1]` || entry.Version != 2 {
		t.Fatalf("unexpected entry %s@%d", entry.Value, entry.Version)
	}
	if err := store.CompareAndDelete(ctx, "photos", 1); !errors.Is(err, apperrors.ErrVersionConflict) {
		t.Fatalf("stale delete must conflict, got %v", err)
	}
	if err := store.CompareAndDelete(ctx, "photos", 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "photos"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCollectionReadWriteAndMalformedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemoryStore()
	col := kv.NewCollection[item](store, "items", nil)

	if got := col.Read(ctx); len(got) != 0 {
		t.Fatalf("expected empty collection, got %v", got)
	}
	if err := col.Write(ctx, []item{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := col.Read(ctx); len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("unexpected read after write: %v", got)
	}

	store.Put("items", []byte("{not json"))
	if got := col.Read(ctx); len(got) != 0 {
		t.Fatalf("malformed state must read as empty, got %v", got)
	}
	if err := col.Write(ctx, []item{{ID: 2}}); err != nil {
		t.Fatalf("write over malformed state: %v", err)
	}
	if got := col.Read(ctx); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected malformed value to be replaced, got %v", got)
	}
}

func TestCollectionMutateKeepsEveryConcurrentInsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newSQLite(t)
	// two collections over one key simulate two independent writers
	first := kv.NewCollection[item](store, "items", nil)
	second := kv.NewCollection[item](store, "items", nil)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		col := first
		if i%2 == 1 {
			col = second
		}
		wg.Add(1)
		go func(n int, col *kv.Collection[item]) {
			defer wg.Done()
			errs <- col.Mutate(ctx, func(items []item) ([]item, error) {
				return append([]item{{ID: n, Name: fmt.Sprint(n)}}, items...), nil
			})
		}(i, col)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
	}
	got := first.Read(ctx)
	if len(got) != 20 {
		t.Fatalf("expected 20 items after concurrent inserts, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, it := range got {
		seen[it.ID] = true
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 distinct ids, got %d", len(seen))
	}
}

func TestCollectionMutateErrorLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := kv.NewCollection[item](kv.NewMemoryStore(), "items", nil)
	if err := col.Write(ctx, []item{{ID: 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	boom := errors.New("boom")
	if err := col.Mutate(ctx, func([]item) ([]item, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
	if got := col.Read(ctx); len(got) != 1 {
		t.Fatalf("state must be unchanged, got %v", got)
	}
}

func TestSlotSaveLoadTake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	slot := kv.NewSlot[item](newSQLite(t), "handoff", nil)

	if _, ok := slot.Load(ctx); ok {
		t.Fatalf("expected empty slot")
	}
	replaced, err := slot.Save(ctx, item{ID: 1})
	if err != nil || replaced {
		t.Fatalf("first save: replaced=%t err=%v", replaced, err)
	}
	replaced, err = slot.Save(ctx, item{ID: 2})
	if err != nil || !replaced {
		t.Fatalf("second save should report overwrite: replaced=%t err=%v", replaced, err)
	}
	if got, ok := slot.Load(ctx); !ok || got.ID != 2 {
		t.Fatalf("load should see latest value, got %+v ok=%t", got, ok)
	}
	if got, ok := slot.Load(ctx); !ok || got.ID != 2 {
		t.Fatalf("load must not clear the slot, got %+v ok=%t", got, ok)
	}
	got, ok, err := slot.Take(ctx)
	if err != nil || !ok || got.ID != 2 {
		t.Fatalf("take: %+v ok=%t err=%v", got, ok, err)
	}
	if _, ok, err := slot.Take(ctx); err != nil || ok {
		t.Fatalf("second take must find the slot empty: ok=%t err=%v", ok, err)
	}
}
