package out

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/capture/domain"
	captureout "fieldcap/internal/modules/capture/port/out"
	"fieldcap/internal/platform/kv"
)

// KVRecords keeps metadata rows in the local record store when no remote database is
// configured. Ids are assigned sequentially per table.
type KVRecords struct {
	store  kv.Store
	logger hclog.Logger
}

var _ captureout.RemoteRecords = (*KVRecords)(nil)

func NewKVRecords(store kv.Store, logger hclog.Logger) *KVRecords {
	return &KVRecords{store: store, logger: logger}
}

func (r *KVRecords) table(name string) (*kv.Collection[domain.RemoteRecord], error) {
	if !identifierPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	return kv.NewCollection[domain.RemoteRecord](r.store, "remote:"+name, r.logger), nil
}

func (r *KVRecords) Insert(ctx context.Context, table string, record domain.RemoteRecord) (int64, error) {
	rows, err := r.table(table)
	if err != nil {
		return 0, err
	}
	var id int64
	err = rows.Mutate(ctx, func(current []domain.RemoteRecord) ([]domain.RemoteRecord, error) {
		id = 1
		for _, row := range current {
			if row.ID >= id {
				id = row.ID + 1
			}
		}
		record.ID = id
		return append(current, record), nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (r *KVRecords) Select(ctx context.Context, table string, filter map[string]any) ([]domain.RemoteRecord, error) {
	rows, err := r.table(table)
	if err != nil {
		return nil, err
	}
	for key := range filter {
		if !knownColumn(key) {
			return nil, fmt.Errorf("unknown filter column %q", key)
		}
	}
	out := []domain.RemoteRecord{}
	for _, row := range rows.Read(ctx) {
		if matchesFilter(row, filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func matchesFilter(row domain.RemoteRecord, filter map[string]any) bool {
	columns, values := row.Columns()
	byName := map[string]any{"id": row.ID}
	for i, column := range columns {
		byName[column] = values[i]
	}
	for key, want := range filter {
		if fmt.Sprint(byName[key]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
