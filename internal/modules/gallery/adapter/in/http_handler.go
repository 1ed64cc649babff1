package in

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldcap/internal/modules/gallery/dto"
	galleryin "fieldcap/internal/modules/gallery/port/in"
	apperrors "fieldcap/internal/platform/errors"
)

type HTTPHandler struct {
	usecase galleryin.Usecase
}

func NewHTTPHandler(usecase galleryin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

// Register mounts the folder routes on group, typically /v1.
func (h HTTPHandler) Register(group *gin.RouterGroup) {
	group.GET("/folders", h.listFolders)
	group.GET("/folders/:key/photos", h.folderPhotos)
	group.DELETE("/folders", h.deleteFolders)
	group.GET("/stats", h.stats)
}

func (h HTTPHandler) listFolders(c *gin.Context) {
	folders, err := h.usecase.ListFolders(c.Request.Context(), dto.ListFoldersInput{
		Query: c.Query("q"),
		Sort:  c.Query("sort"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "count": len(folders)})
}

func (h HTTPHandler) folderPhotos(c *gin.Context) {
	detail, err := h.usecase.GetDetail(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h HTTPHandler) deleteFolders(c *gin.Context) {
	var input dto.DeleteFoldersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	out, err := h.usecase.DeleteFolders(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) stats(c *gin.Context) {
	stats, err := h.usecase.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
