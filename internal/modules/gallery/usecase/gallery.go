package usecase

import (
	"context"

	"fieldcap/internal/modules/gallery/domain"
	"fieldcap/internal/modules/gallery/dto"
	galleryin "fieldcap/internal/modules/gallery/port/in"
	"fieldcap/internal/modules/gallery/service"
)

type Interactor struct {
	svc *service.GalleryService
}

func NewInteractor(svc *service.GalleryService) galleryin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AppendPhoto(ctx context.Context, input dto.PhotoInput) (dto.PhotoOutput, error) {
	record := domain.PhotoRecord{
		ID:        input.ID,
		URI:       input.URI,
		Lat:       input.Lat,
		Lon:       input.Lon,
		Acc:       input.Acc,
		CreatedAt: input.CreatedAt,
	}
	if input.SessionID != "" {
		record.SessionID = domain.StringPtr(input.SessionID)
	}
	if err := i.svc.Append(ctx, record); err != nil {
		return dto.PhotoOutput{}, err
	}
	return toPhotoOutput(record), nil
}

func (i *Interactor) ListPhotos(ctx context.Context) ([]dto.PhotoOutput, error) {
	records, err := i.svc.Photos(ctx)
	if err != nil {
		return nil, err
	}
	return toPhotoOutputs(records), nil
}

func (i *Interactor) SessionPhotos(ctx context.Context, sessionID string) ([]dto.PhotoOutput, error) {
	records, err := i.svc.SessionPhotos(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toPhotoOutputs(records), nil
}

func (i *Interactor) ListFolders(ctx context.Context, input dto.ListFoldersInput) ([]dto.FolderOutput, error) {
	folders, err := i.svc.Folders(ctx, input.Query, input.Sort)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FolderOutput, 0, len(folders))
	for _, folder := range folders {
		out = append(out, dto.FolderOutput{
			ID:        folder.ID,
			Cover:     folder.Cover,
			When:      folder.When,
			Count:     folder.Count,
			MemberIDs: folder.MemberIDs,
			Legacy:    folder.Legacy(),
			DetailKey: folder.DetailKey(i.svc.Location()),
		})
	}
	return out, nil
}

func (i *Interactor) GetDetail(ctx context.Context, key string) (dto.DetailOutput, error) {
	photos, tier, err := i.svc.Detail(ctx, key)
	if err != nil {
		return dto.DetailOutput{}, err
	}
	return dto.DetailOutput{Key: key, Tier: string(tier), Photos: toPhotoOutputs(photos)}, nil
}

func (i *Interactor) DeleteFolders(ctx context.Context, input dto.DeleteFoldersInput) (dto.DeleteFoldersOutput, error) {
	removed, err := i.svc.Delete(ctx, input.IDs)
	if err != nil {
		return dto.DeleteFoldersOutput{}, err
	}
	return dto.DeleteFoldersOutput{Removed: removed}, nil
}

func (i *Interactor) Stats(ctx context.Context) (dto.StatsOutput, error) {
	stats, err := i.svc.Stats(ctx)
	if err != nil {
		return dto.StatsOutput{}, err
	}
	return dto.StatsOutput{
		Folders:       stats.Folders,
		LegacyFolders: stats.LegacyFolders,
		Photos:        stats.Photos,
		RemotePhotos:  stats.RemotePhotos,
		LocalPhotos:   stats.LocalPhotos,
	}, nil
}

func toPhotoOutputs(records []domain.PhotoRecord) []dto.PhotoOutput {
	out := make([]dto.PhotoOutput, 0, len(records))
	for _, record := range records {
		out = append(out, toPhotoOutput(record))
	}
	return out
}

func toPhotoOutput(record domain.PhotoRecord) dto.PhotoOutput {
	return dto.PhotoOutput{
		ID:        record.ID,
		URI:       record.URI,
		Lat:       record.Lat,
		Lon:       record.Lon,
		Acc:       record.Acc,
		CreatedAt: record.CreatedAt,
		SessionID: record.Session(),
		Remote:    record.Remote(),
	}
}
