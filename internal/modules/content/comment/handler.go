package comment

import (
	"errors"
	"io"

	"github.com/blogsphere/core/internal/middleware"
	"github.com/blogsphere/core/internal/modules/content/post"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/blogsphere/core/internal/pkg/validate"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/posts/:id/comments", authMW, h.create)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, validate.Translate(err))
		return
	}
	id := post.ParsePostKey(c.Param("id")).Value
	view, err := h.svc.Append(c.Request.Context(), middleware.CurrentPrincipal(c), id, &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}
