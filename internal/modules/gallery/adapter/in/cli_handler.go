package in

import (
	"context"

	"fieldcap/internal/modules/gallery/dto"
	galleryin "fieldcap/internal/modules/gallery/port/in"
)

type CLIHandler struct {
	usecase galleryin.Usecase
}

func NewCLIHandler(usecase galleryin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListFolders(ctx context.Context, query, sort string) ([]dto.FolderOutput, error) {
	return h.usecase.ListFolders(ctx, dto.ListFoldersInput{Query: query, Sort: sort})
}

func (h CLIHandler) ShowFolder(ctx context.Context, key string) (dto.DetailOutput, error) {
	return h.usecase.GetDetail(ctx, key)
}

func (h CLIHandler) DeleteFolders(ctx context.Context, ids []string) (dto.DeleteFoldersOutput, error) {
	return h.usecase.DeleteFolders(ctx, dto.DeleteFoldersInput{IDs: ids})
}

func (h CLIHandler) Stats(ctx context.Context) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx)
}
