package models

// ApplicationModel is a licensed product (tenant) owned by an account.
// AppID is the numeric public identifier clients authenticate against and the
// one carried in webhook payloads; the UUID primary key stays internal.
type ApplicationModel struct {
	Base
	AccountID string `json:"account_id" gorm:"index;not null"`
	AppID     int64  `json:"app_id"     gorm:"uniqueIndex;autoIncrement;not null"`
	Name      string `json:"name"       gorm:"not null"`
	Secret    string `json:"-"          gorm:"not null"`
	Version   string `json:"version"`
	HWIDLock  bool   `json:"hwid_lock"  gorm:"default:true"`
	Active    bool   `json:"active"     gorm:"default:true"`
}

func (ApplicationModel) TableName() string { return "applications" }
