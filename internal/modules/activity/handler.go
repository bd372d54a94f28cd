package activity

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/pkg/pagination"
	"github.com/keyward/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/activities", authMW)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.DELETE("/app/:appId", h.clearByApp)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)

	var f Filter
	if raw := c.Query("app_id"); raw != "" {
		appID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid app_id")
			return
		}
		f.AppID = &appID
	}
	f.Event = c.Query("event")
	f.AppUserID = c.Query("app_user_id")
	if raw := c.Query("success"); raw != "" {
		success := raw == "true" || raw == "1"
		f.Success = &success
	}

	items, pag, err := h.svc.List(q, f)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	item, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if item == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, item)
}

func (h *Handler) clearByApp(c *gin.Context) {
	appID, err := strconv.ParseInt(c.Param("appId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid app id")
		return
	}
	if err := h.svc.ClearByApp(appID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
