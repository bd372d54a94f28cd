package models

import "time"

// ActivityModel is the append-only audit trail of application events. Entries
// are written best-effort by the notification pipeline and never updated.
type ActivityModel struct {
	Base
	AppID        int64                  `json:"app_id"     gorm:"index;not null"`
	AppUserID    string                 `json:"app_user_id,omitempty" gorm:"index"`
	Event        string                 `json:"event"      gorm:"index;not null"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty" gorm:"type:text"`
	IP           string                 `json:"ip,omitempty"`
	HWID         string                 `json:"hwid,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty" gorm:"type:text"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" gorm:"serializer:json;type:longtext"`
	Timestamp    time.Time              `json:"timestamp"  gorm:"index"`
}

func (ActivityModel) TableName() string { return "activities" }
