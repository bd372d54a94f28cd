package models

// Blacklist entry kinds.
const (
	BlacklistKindHWID = "hwid"
	BlacklistKindIP   = "ip"
)

// BlacklistModel blocks a HWID or IP from authenticating against an application.
type BlacklistModel struct {
	Base
	AppID  int64  `json:"app_id" gorm:"index:idx_app_kind_value,unique,priority:1;not null"`
	Kind   string `json:"kind"   gorm:"index:idx_app_kind_value,unique,priority:2;not null"`
	Value  string `json:"value"  gorm:"index:idx_app_kind_value,unique,priority:3;not null"`
	Reason string `json:"reason"`
}

func (BlacklistModel) TableName() string { return "blacklist_entries" }
