package in

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	handoffin "fieldcap/internal/modules/handoff/port/in"
	apperrors "fieldcap/internal/platform/errors"
)

type HTTPHandler struct {
	usecase handoffin.Usecase
}

func NewHTTPHandler(usecase handoffin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(group *gin.RouterGroup) {
	group.GET("/handoff", h.peek)
	group.POST("/handoff/consume", h.consume)
}

func (h HTTPHandler) peek(c *gin.Context) {
	payload, err := h.usecase.Peek(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h HTTPHandler) consume(c *gin.Context) {
	payload, err := h.usecase.Consume(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNoHandoff) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
