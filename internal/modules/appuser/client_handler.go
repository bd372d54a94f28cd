package appuser

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/pkg/response"
)

// ClientHandler serves the endpoints hit by application clients. These
// authenticate with the application id + secret pair, not an account JWT.
type ClientHandler struct {
	svc *Service
}

func NewClientHandler(svc *Service) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/client")
	g.POST("/login", h.login)
	g.POST("/register", h.register)
	g.POST("/session", h.validateSession)
	g.POST("/logout", h.logout)
}

func clientContextOf(c *gin.Context) ClientContext {
	return ClientContext{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *ClientHandler) abortClientErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrClientAppNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrBadAppSecret), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSessionInvalid):
		response.UnauthorizedMsg(c, err.Error())
	case errors.Is(err, ErrAppPaused), errors.Is(err, ErrBlacklisted),
		errors.Is(err, ErrUserBanned), errors.Is(err, ErrSubscriptionExpired),
		errors.Is(err, ErrHWIDMismatch):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, ErrUsernameUsed):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *ClientHandler) login(c *gin.Context) {
	var dto ClientLoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	session, user, err := h.svc.ClientLogin(&dto, clientContextOf(c))
	if err != nil {
		h.abortClientErr(c, err)
		return
	}
	response.OK(c, gin.H{
		"session": clientSessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		"user":    toResponse(user),
	})
}

func (h *ClientHandler) register(c *gin.Context) {
	var dto ClientRegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	session, user, err := h.svc.ClientRegister(&dto, clientContextOf(c))
	if err != nil {
		h.abortClientErr(c, err)
		return
	}
	response.Created(c, gin.H{
		"session": clientSessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		"user":    toResponse(user),
	})
}

func (h *ClientHandler) validateSession(c *gin.Context) {
	var dto ClientSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	session, user, err := h.svc.ClientValidateSession(&dto)
	if err != nil {
		h.abortClientErr(c, err)
		return
	}
	response.OK(c, gin.H{
		"session": clientSessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		"user":    toResponse(user),
	})
}

func (h *ClientHandler) logout(c *gin.Context) {
	var dto ClientSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.ClientLogout(&dto); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
