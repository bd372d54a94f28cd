package webhook

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
	g := rg.Group("/webhooks", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)

	g.GET("/events", h.listEventsEnum)
	g.POST("/test", h.test)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(middleware.CurrentAccountID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]webhookResponse, len(items))
	for i, w := range items {
		out[i] = toResponse(&w)
	}
	response.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateWebhookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, err := h.svc.Create(middleware.CurrentAccountID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(w))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateWebhookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, err := h.svc.Update(middleware.CurrentAccountID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if w == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(w))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentAccountID(c), c.Param("id")); err != nil {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listEventsEnum(c *gin.Context) {
	response.OK(c, notify.Events())
}

type testDTO struct {
	AppID int64 `json:"app_id"`
}

// test fires a synthetic event through the full notification pipeline so the
// account can verify its destinations end to end.
func (h *Handler) test(c *gin.Context) {
	var dto testDTO
	_ = c.ShouldBindJSON(&dto)

	accountID := middleware.CurrentAccountID(c)
	go h.notifier.Notify(context.Background(), accountID, dto.AppID, notify.EventWebhookTest, nil, notify.Options{
		Metadata: notify.Metadata{"triggered_by": "api"},
		IP:       c.ClientIP(),
	})
	response.NoContent(c)
}
