package models

import "time"

// AppUserModel is an end user of a licensed application.
type AppUserModel struct {
	Base
	AppID         int64      `json:"app_id"     gorm:"index:idx_app_username,unique,priority:1;not null"`
	Username      string     `json:"username"   gorm:"index:idx_app_username,unique,priority:2;not null"`
	Password      string     `json:"-"          gorm:"not null"`
	Email         string     `json:"email"`
	HWID          string     `json:"hwid"       gorm:"index"`
	LastIP        string     `json:"last_ip"`
	LastUserAgent string     `json:"last_user_agent" gorm:"type:text"`
	ExpiresAt     *time.Time `json:"expires_at" gorm:"index"`
	Banned        bool       `json:"banned"     gorm:"default:false"`
	BanReason     string     `json:"ban_reason"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

func (AppUserModel) TableName() string { return "app_users" }

// AppSessionModel tracks authenticated client sessions per app user.
type AppSessionModel struct {
	Base
	AppID     int64      `json:"app_id"     gorm:"index;not null"`
	AppUserID string     `json:"app_user_id" gorm:"index;not null"`
	Token     string     `json:"token"      gorm:"uniqueIndex;not null"`
	IP        string     `json:"ip"`
	UserAgent string     `json:"user_agent" gorm:"type:text"`
	HWID      string     `json:"hwid"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
}

func (AppSessionModel) TableName() string { return "app_sessions" }
