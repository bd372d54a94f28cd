package models

// WebhookModel defines an outbound webhook destination registered by an account.
type WebhookModel struct {
	Base
	AccountID  string      `json:"account_id"  gorm:"index;not null"`
	PayloadURL string      `json:"payload_url" gorm:"not null"`
	Events     StringArray `json:"events"      gorm:"type:text"`
	Enabled    bool        `json:"enabled"     gorm:"default:true"`
	Secret     string      `json:"-"`
}

func (WebhookModel) TableName() string { return "webhooks" }
