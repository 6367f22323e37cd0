package post

import (
	"github.com/blogsphere/core/internal/middleware"
	"github.com/blogsphere/core/internal/pkg/pagination"
	"github.com/blogsphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	query *Query
	svc   *Service
}

func NewHandler(query *Query, svc *Service) *Handler {
	return &Handler{query: query, svc: svc}
}

// RegisterRoutes mounts the post endpoints. cacheMW may be nil; it is only
// applied to the list and search routes, which are stable for anonymous
// callers.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW, cacheMW gin.HandlerFunc) {
	posts := rg.Group("/posts")
	posts.GET("", chain(optionalAuthMW, cacheMW, h.list)...)
	posts.GET("/search", chain(cacheMW, h.search)...)
	posts.GET("/:id", h.get)

	authed := posts.Group("", authMW)
	authed.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (h *Handler) list(c *gin.Context) {
	page := pagination.FromContext(c)
	principal := middleware.CurrentPrincipal(c)
	result, err := h.query.List(c.Request.Context(), ListQuery{
		Page:       page,
		CategoryID: c.Query("category"),
		Visibility: ResolveVisibility(c.Query("isPublished") != "false", principal),
		Principal:  principal,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, result.Items, page.Summary(result.Total))
}

func (h *Handler) search(c *gin.Context) {
	page := pagination.FromContext(c)
	result, err := h.query.Search(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, result.Items, page.Summary(result.Total))
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.query.Get(c.Request.Context(), ParsePostKey(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) create(c *gin.Context) {
	form, err := bindPostForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), middleware.CurrentPrincipal(c), form.createInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

func (h *Handler) update(c *gin.Context) {
	form, err := bindPostForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.svc.Update(c.Request.Context(), middleware.CurrentPrincipal(c), ParsePostKey(c.Param("id")).Value, form.updateInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), ParsePostKey(c.Param("id")).Value); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
