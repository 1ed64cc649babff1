package out

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/gallery/domain"
	galleryout "fieldcap/internal/modules/gallery/port/out"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/kv"
)

type KVPhotoLog struct {
	photos *kv.Collection[domain.PhotoRecord]
}

func NewKVPhotoLog(store kv.Store, logger hclog.Logger) galleryout.PhotoLog {
	return &KVPhotoLog{photos: kv.NewCollection[domain.PhotoRecord](store, domain.PhotosKey, logger)}
}

func (l *KVPhotoLog) Append(ctx context.Context, record domain.PhotoRecord) error {
	return l.photos.Mutate(ctx, func(current []domain.PhotoRecord) ([]domain.PhotoRecord, error) {
		for _, existing := range current {
			if existing.ID == record.ID {
				return nil, fmt.Errorf("%w: %d", apperrors.ErrDuplicatePhoto, record.ID)
			}
		}
		next := make([]domain.PhotoRecord, 0, len(current)+1)
		next = append(next, record)
		return append(next, current...), nil
	})
}

func (l *KVPhotoLog) All(ctx context.Context) ([]domain.PhotoRecord, error) {
	return l.photos.Read(ctx), nil
}

func (l *KVPhotoLog) RemoveWhere(ctx context.Context, match func(domain.PhotoRecord) bool) (int, error) {
	removed := 0
	err := l.photos.Mutate(ctx, func(current []domain.PhotoRecord) ([]domain.PhotoRecord, error) {
		removed = 0
		kept := make([]domain.PhotoRecord, 0, len(current))
		for _, record := range current {
			if match(record) {
				removed++
				continue
			}
			kept = append(kept, record)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
