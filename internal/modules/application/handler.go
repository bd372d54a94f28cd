package application

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/middleware"
	"github.com/keyward/core/internal/modules/notify"
	"github.com/keyward/core/internal/pkg/response"
)

type Handler struct {
	svc      *Service
	notifier *notify.Notifier
}

func NewHandler(svc *Service, notifier *notify.Notifier) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/applications", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/rotate-secret", h.rotateSecret)
	g.POST("/:id/pause", h.pause)
	g.POST("/:id/resume", h.resume)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(middleware.CurrentAccountID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]applicationResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i], false)
	}
	response.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.svc.GetByID(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(a, false))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateApplicationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.Create(middleware.CurrentAccountID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	// The secret is returned once, on creation and rotation only.
	response.Created(c, toResponse(a, true))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateApplicationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.Update(middleware.CurrentAccountID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(a, false))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentAccountID(c), c.Param("id")); err != nil {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) rotateSecret(c *gin.Context) {
	a, err := h.svc.RotateSecret(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(a, true))
}

func (h *Handler) pause(c *gin.Context)  { h.setActive(c, false, notify.EventAppPaused) }
func (h *Handler) resume(c *gin.Context) { h.setActive(c, true, notify.EventAppResumed) }

func (h *Handler) setActive(c *gin.Context, active bool, event string) {
	accountID := middleware.CurrentAccountID(c)
	a, err := h.svc.SetActive(accountID, c.Param("id"), active)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c)
		return
	}

	go h.notifier.Notify(context.Background(), accountID, a.AppID, event, nil, notify.Options{
		Metadata: notify.Metadata{"application": a.Name},
	})
	response.OK(c, toResponse(a, false))
}
