package in

import (
	"context"

	"fieldcap/internal/modules/gallery/dto"
)

type Usecase interface {
	AppendPhoto(ctx context.Context, input dto.PhotoInput) (dto.PhotoOutput, error)
	ListPhotos(ctx context.Context) ([]dto.PhotoOutput, error)
	SessionPhotos(ctx context.Context, sessionID string) ([]dto.PhotoOutput, error)
	ListFolders(ctx context.Context, input dto.ListFoldersInput) ([]dto.FolderOutput, error)
	GetDetail(ctx context.Context, key string) (dto.DetailOutput, error)
	DeleteFolders(ctx context.Context, input dto.DeleteFoldersInput) (dto.DeleteFoldersOutput, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
}
