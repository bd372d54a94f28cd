package models

import "time"

// AccountModel represents an application owner (seller/developer) account.
type AccountModel struct {
	Base
	Username      string     `json:"username"        gorm:"uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	Mail          string     `json:"mail"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
	APITokens     []APIToken `json:"api_tokens,omitempty" gorm:"foreignKey:AccountID"`
}

func (AccountModel) TableName() string { return "accounts" }

// APIToken represents a personal API token for programmatic access.
type APIToken struct {
	Base
	AccountID string     `json:"-"          gorm:"index;not null"`
	Token     string     `json:"token"      gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	ExpiredAt *time.Time `json:"expired_at"`
}

func (APIToken) TableName() string { return "api_tokens" }

// AccountSession tracks signed-in JWT sessions for device/session management.
type AccountSession struct {
	Base
	AccountID string     `json:"account_id" gorm:"index;not null"`
	IP        string     `json:"ip"`
	UA        string     `json:"ua"         gorm:"type:text"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
}

func (AccountSession) TableName() string { return "account_sessions" }
