package appuser

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/middleware"
	"github.com/keyward/core/internal/pkg/pagination"
	"github.com/keyward/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/users", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/ban", h.ban)
	g.POST("/:id/unban", h.unban)
	g.POST("/:id/reset-hwid", h.resetHWID)
	g.POST("/:id/extend", h.extend)
	g.GET("/:id/sessions", h.listSessions)
	g.DELETE("/:id/sessions/:sessionId", h.killSession)

	// Nested under /applications, param name must match the application routes.
	b := rg.Group("/applications/:id/blacklist", authMW)
	b.GET("", h.listBlacklist)
	b.POST("", h.addBlacklist)
	b.DELETE("/:entryId", h.removeBlacklist)
}

func (h *Handler) abortServiceErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAppNotFound), errors.Is(err, ErrNotOwner), errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c)
	case errors.Is(err, ErrUsernameUsed):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrBadBlacklistKind):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func appIDQuery(c *gin.Context) (int64, bool) {
	raw := c.Query("app_id")
	if raw == "" {
		raw = c.Query("appId")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) list(c *gin.Context) {
	appID, ok := appIDQuery(c)
	if !ok {
		response.BadRequest(c, "app_id query parameter is required")
		return
	}
	items, pag, err := h.svc.List(middleware.CurrentAccountID(c), appID, pagination.FromContext(c))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	out := make([]appUserResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i])
	}
	response.Paged(c, out, pag)
}

func (h *Handler) get(c *gin.Context) {
	u, _, err := h.svc.getOwned(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	out := toResponse(u)
	out.Online = h.svc.IsOnline(c.Request.Context(), u.AppID, u.ID)
	response.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateAppUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Create(middleware.CurrentAccountID(c), &dto)
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.Created(c, toResponse(u))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateAppUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Update(middleware.CurrentAccountID(c), c.Param("id"), &dto)
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentAccountID(c), c.Param("id")); err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) ban(c *gin.Context) {
	// The reason is optional, an empty body is accepted.
	var dto BanDTO
	_ = c.ShouldBindJSON(&dto)
	u, err := h.svc.SetBanned(middleware.CurrentAccountID(c), c.Param("id"), true, dto.Reason)
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) unban(c *gin.Context) {
	u, err := h.svc.SetBanned(middleware.CurrentAccountID(c), c.Param("id"), false, "")
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) resetHWID(c *gin.Context) {
	u, err := h.svc.ResetHWID(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) extend(c *gin.Context) {
	var dto ExtendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.ExtendExpiry(middleware.CurrentAccountID(c), c.Param("id"), dto.Days)
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.OK(c, sessions)
}

func (h *Handler) killSession(c *gin.Context) {
	err := h.svc.KillSession(middleware.CurrentAccountID(c), c.Param("id"), c.Param("sessionId"))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listBlacklist(c *gin.Context) {
	entries, err := h.svc.ListBlacklist(middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) addBlacklist(c *gin.Context) {
	var dto BlacklistDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	entry, err := h.svc.AddBlacklist(middleware.CurrentAccountID(c), c.Param("id"), &dto)
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.Created(c, entry)
}

func (h *Handler) removeBlacklist(c *gin.Context) {
	err := h.svc.RemoveBlacklist(middleware.CurrentAccountID(c), c.Param("id"), c.Param("entryId"))
	if err != nil {
		h.abortServiceErr(c, err)
		return
	}
	response.NoContent(c)
}
