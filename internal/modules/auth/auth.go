package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/keyward/core/internal/middleware"
	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/modules/notify"
	"github.com/keyward/core/internal/pkg/response"
	"github.com/keyward/core/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Mail     string `json:"mail"`
}

type CreateTokenDTO struct {
	Name      string     `json:"name"       binding:"required"`
	ExpiredAt *time.Time `json:"expired_at"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Token     string     `json:"token"`
	ExpiredAt *time.Time `json:"expired_at"`
	Created   time.Time  `json:"created"`
}

type Service struct {
	db       *gorm.DB
	notifier *notify.Notifier
}

func NewService(db *gorm.DB, notifier *notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// Login verifies credentials and issues a session-bound JWT. Failed attempts
// are slowed down and reported through the notification facade so owners can
// watch for brute forcing against their dashboard.
func (s *Service) Login(username, password, ip, ua string) (string, error) {
	var a models.AccountModel
	if err := s.db.Select("id, password").
		Where("username = ?", username).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(3 * time.Second)
			return "", fmt.Errorf("account not found")
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)); err != nil {
		time.Sleep(3 * time.Second)
		opts := notify.Failure("wrong password")
		opts.IP, opts.UserAgent = ip, ua
		opts.Metadata = notify.Metadata{"username": username}
		go s.notifier.Notify(context.Background(), a.ID, 0, notify.EventAccountLoginFailed, nil, opts)
		return "", fmt.Errorf("wrong password")
	}

	token, _, err := session.Issue(s.db, a.ID, ip, ua, session.DefaultTTL)
	if err != nil {
		return "", err
	}

	now := time.Now()
	_ = s.db.Model(&a).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	}).Error
	return token, nil
}

// Register creates the owner account. Only one account may exist; further
// accounts are created by that owner, not by open registration.
func (s *Service) Register(dto *RegisterDTO) (*models.AccountModel, error) {
	var count int64
	s.db.Model(&models.AccountModel{}).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("owner already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := dto.Name
	if name == "" {
		name = dto.Username
	}
	a := models.AccountModel{Username: dto.Username, Password: string(hash), Name: name, Mail: dto.Mail}
	return &a, s.db.Create(&a).Error
}

func (s *Service) ListTokens(accountID string) ([]models.APIToken, error) {
	var tokens []models.APIToken
	return tokens, s.db.Where("account_id = ? AND (expired_at IS NULL OR expired_at > ?)", accountID, time.Now()).
		Order("created_at DESC").Find(&tokens).Error
}

func (s *Service) CreateToken(accountID string, dto *CreateTokenDTO) (*models.APIToken, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	token := "kw" + hex.EncodeToString(b)

	t := models.APIToken{
		AccountID: accountID,
		Token:     token,
		Name:      dto.Name,
		ExpiredAt: dto.ExpiredAt,
	}
	return &t, s.db.Create(&t).Error
}

func (s *Service) DeleteToken(accountID, tokenID string) error {
	result := s.db.Where("id = ? AND account_id = ?", tokenID, accountID).
		Delete(&models.APIToken{})
	if result.RowsAffected == 0 {
		return fmt.Errorf("token not found")
	}
	return result.Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/register", h.register)
	a.GET("/session", middleware.OptionalAuth(h.svc.db), h.session)
	a.GET("/sessions", authMW, h.listSessions)
	a.DELETE("/sessions/:id", authMW, h.revokeSession)
	a.POST("/revoke-other-sessions", authMW, h.revokeOtherSessions)

	tok := a.Group("/token", authMW)
	tok.GET("", h.listTokens)
	tok.POST("", h.createToken)
	tok.DELETE("/:id", h.deleteToken)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.svc.Login(dto.Username, dto.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.OK(c, loginResponse{Token: token})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.Register(&dto)
	if err != nil {
		if err.Error() == "owner already registered" {
			response.Forbidden(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"id": a.ID, "username": a.Username})
}

func (h *Handler) session(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		response.OK(c, nil)
		return
	}
	response.OK(c, gin.H{
		"account": gin.H{"id": middleware.CurrentAccountID(c)},
	})
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := session.ListActive(h.svc.db, middleware.CurrentAccountID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	current := middleware.CurrentSessionID(c)
	items := make([]gin.H, len(sessions))
	for i, s := range sessions {
		items[i] = gin.H{
			"id":         s.ID,
			"ip":         s.IP,
			"ua":         s.UA,
			"created":    s.CreatedAt,
			"expires_at": s.ExpiresAt,
			"current":    s.ID == current,
		}
	}
	response.OK(c, items)
}

func (h *Handler) revokeSession(c *gin.Context) {
	err := session.Revoke(h.svc.db, middleware.CurrentAccountID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) revokeOtherSessions(c *gin.Context) {
	err := session.RevokeAllExcept(h.svc.db, middleware.CurrentAccountID(c), middleware.CurrentSessionID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"status": true})
}

func (h *Handler) listTokens(c *gin.Context) {
	tokens, err := h.svc.ListTokens(middleware.CurrentAccountID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	items := make([]tokenResponse, len(tokens))
	for i, t := range tokens {
		items[i] = tokenResponse{
			ID: t.ID, Name: t.Name, Token: t.Token,
			ExpiredAt: t.ExpiredAt, Created: t.CreatedAt,
		}
	}
	response.OK(c, gin.H{"data": items})
}

func (h *Handler) createToken(c *gin.Context) {
	var dto CreateTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.svc.CreateToken(middleware.CurrentAccountID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, tokenResponse{
		ID: t.ID, Name: t.Name, Token: t.Token,
		ExpiredAt: t.ExpiredAt, Created: t.CreatedAt,
	})
}

func (h *Handler) deleteToken(c *gin.Context) {
	if err := h.svc.DeleteToken(middleware.CurrentAccountID(c), c.Param("id")); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.NoContent(c)
}
