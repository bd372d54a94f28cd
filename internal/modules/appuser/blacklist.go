package appuser

import (
	"context"
	"errors"
	"strings"

	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/modules/notify"
	"gorm.io/gorm"
)

var ErrBadBlacklistKind = errors.New("kind must be hwid or ip")

type BlacklistDTO struct {
	Kind   string `json:"kind"   binding:"required"`
	Value  string `json:"value"  binding:"required"`
	Reason string `json:"reason"`
}

// resolveOwnedByRecordID loads an application by its record id, account scoped.
func (s *Service) resolveOwnedByRecordID(accountID, id string) (*models.ApplicationModel, error) {
	app, err := s.apps.GetByID(accountID, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrAppNotFound
	}
	return app, nil
}

func (s *Service) ListBlacklist(accountID, applicationID string) ([]models.BlacklistModel, error) {
	app, err := s.resolveOwnedByRecordID(accountID, applicationID)
	if err != nil {
		return nil, err
	}
	var entries []models.BlacklistModel
	err = s.db.Where("app_id = ?", app.AppID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (s *Service) AddBlacklist(accountID, applicationID string, dto *BlacklistDTO) (*models.BlacklistModel, error) {
	app, err := s.resolveOwnedByRecordID(accountID, applicationID)
	if err != nil {
		return nil, err
	}

	kind := strings.ToLower(strings.TrimSpace(dto.Kind))
	if kind != models.BlacklistKindHWID && kind != models.BlacklistKindIP {
		return nil, ErrBadBlacklistKind
	}

	entry := models.BlacklistModel{
		AppID:  app.AppID,
		Kind:   kind,
		Value:  strings.TrimSpace(dto.Value),
		Reason: dto.Reason,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}

	meta := notify.Metadata{"kind": entry.Kind, "value": entry.Value}
	if entry.Reason != "" {
		meta["reason"] = entry.Reason
	}
	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventBlacklistAdd,
		nil, notify.Options{Metadata: meta})
	return &entry, nil
}

func (s *Service) RemoveBlacklist(accountID, applicationID, entryID string) error {
	app, err := s.resolveOwnedByRecordID(accountID, applicationID)
	if err != nil {
		return err
	}

	var entry models.BlacklistModel
	if err := s.db.First(&entry, "id = ? AND app_id = ?", entryID, app.AppID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		return err
	}
	if err := s.db.Delete(&entry).Error; err != nil {
		return err
	}

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventBlacklistRemove,
		nil, notify.Options{Metadata: notify.Metadata{"kind": entry.Kind, "value": entry.Value}})
	return nil
}
