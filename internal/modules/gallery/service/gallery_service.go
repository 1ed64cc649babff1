package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/gallery/domain"
	galleryout "fieldcap/internal/modules/gallery/port/out"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/logging"
)

// GalleryService projects the photo log into folders. Nothing derived is cached; every call
// reads the log again.
type GalleryService struct {
	log    galleryout.PhotoLog
	loc    *time.Location
	logger hclog.Logger
}

func NewGalleryService(log galleryout.PhotoLog, loc *time.Location, logger hclog.Logger) *GalleryService {
	if loc == nil {
		loc = time.Local
	}
	return &GalleryService{log: log, loc: loc, logger: logging.OrDiscard(logger)}
}

func (s *GalleryService) Location() *time.Location { return s.loc }

func (s *GalleryService) Append(ctx context.Context, record domain.PhotoRecord) error {
	if strings.TrimSpace(record.URI) == "" {
		return fmt.Errorf("%w: photo uri is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(record.CreatedAt) == "" {
		return fmt.Errorf("%w: photo createdAt is required", apperrors.ErrInvalidInput)
	}
	if err := s.log.Append(ctx, record); err != nil {
		return err
	}
	s.logger.Debug("photo appended", "id", record.ID, "folder", record.FolderID())
	return nil
}

func (s *GalleryService) Photos(ctx context.Context) ([]domain.PhotoRecord, error) {
	return s.log.All(ctx)
}

func (s *GalleryService) SessionPhotos(ctx context.Context, sessionID string) ([]domain.PhotoRecord, error) {
	records, err := s.log.All(ctx)
	if err != nil {
		return nil, err
	}
	return domain.InSession(records, sessionID), nil
}

func (s *GalleryService) Folders(ctx context.Context, query, sortMode string) ([]domain.Folder, error) {
	mode, err := domain.ParseSortMode(sortMode)
	if err != nil {
		return nil, err
	}
	records, err := s.log.All(ctx)
	if err != nil {
		return nil, err
	}
	folders := domain.Filter(domain.Group(records), query, s.loc)
	return domain.SortFolders(folders, mode), nil
}

func (s *GalleryService) Detail(ctx context.Context, key string) ([]domain.PhotoRecord, domain.DetailTier, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.TierNone, fmt.Errorf("%w: folder key is required", apperrors.ErrInvalidInput)
	}
	records, err := s.log.All(ctx)
	if err != nil {
		return nil, domain.TierNone, err
	}
	photos, tier := domain.Detail(records, key, s.loc)
	if tier == domain.TierDay {
		s.logger.Debug("detail resolved by calendar day", "key", key, "photos", len(photos))
	}
	return photos, tier, nil
}

// Delete removes every record of the selected folders in one rewrite.
func (s *GalleryService) Delete(ctx context.Context, ids []string) (int, error) {
	selected := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		return 0, nil
	}
	removed, err := s.log.RemoveWhere(ctx, domain.SelectFolders(selected))
	if err != nil {
		return 0, err
	}
	s.logger.Info("folders deleted", "folders", len(selected), "photos", removed)
	return removed, nil
}

func (s *GalleryService) Stats(ctx context.Context) (domain.Stats, error) {
	records, err := s.log.All(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Summarize(records), nil
}
