package appuser

import (
	"time"

	"github.com/keyward/core/internal/models"
)

type CreateAppUserDTO struct {
	AppID     int64      `json:"app_id"   binding:"required"`
	Username  string     `json:"username" binding:"required"`
	Password  string     `json:"password" binding:"required,min=6"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type UpdateAppUserDTO struct {
	Password  *string    `json:"password"`
	Email     *string    `json:"email"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type BanDTO struct {
	Reason string `json:"reason"`
}

type ExtendDTO struct {
	Days int `json:"days" binding:"required,min=1"`
}

type ClientLoginDTO struct {
	AppID    int64  `json:"app_id"   binding:"required"`
	Secret   string `json:"secret"   binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	HWID     string `json:"hwid"`
}

type ClientRegisterDTO struct {
	AppID    int64  `json:"app_id"   binding:"required"`
	Secret   string `json:"secret"   binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email"`
	HWID     string `json:"hwid"`
}

type ClientSessionDTO struct {
	AppID int64  `json:"app_id" binding:"required"`
	Token string `json:"token"  binding:"required"`
}

type appUserResponse struct {
	ID          string     `json:"id"`
	AppID       int64      `json:"app_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	HWID        string     `json:"hwid,omitempty"`
	LastIP      string     `json:"last_ip,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Banned      bool       `json:"banned"`
	BanReason   string     `json:"ban_reason,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Online      bool       `json:"online"`
	Created     time.Time  `json:"created"`
}

func toResponse(u *models.AppUserModel) appUserResponse {
	return appUserResponse{
		ID: u.ID, AppID: u.AppID, Username: u.Username, Email: u.Email,
		HWID: u.HWID, LastIP: u.LastIP, ExpiresAt: u.ExpiresAt,
		Banned: u.Banned, BanReason: u.BanReason,
		LastLoginAt: u.LastLoginAt, Created: u.CreatedAt,
	}
}

type clientSessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
