package activity

import (
	"context"
	"errors"
	"time"

	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/pkg/pagination"
	"github.com/keyward/core/internal/pkg/response"
	"gorm.io/gorm"
)

// Service exposes the activity log: appends come from the notification
// pipeline, reads from the management API.
type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Append satisfies notify.ActivityStore.
func (s *Service) Append(ctx context.Context, entry *models.ActivityModel) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// Filter narrows activity listings.
type Filter struct {
	AppID     *int64
	Event     string
	Success   *bool
	AppUserID string
}

func (s *Service) List(q pagination.Query, f Filter) ([]models.ActivityModel, response.Pagination, error) {
	tx := s.db.Model(&models.ActivityModel{}).Order("timestamp DESC")
	if f.AppID != nil {
		tx = tx.Where("app_id = ?", *f.AppID)
	}
	if f.Event != "" {
		tx = tx.Where("event = ?", f.Event)
	}
	if f.Success != nil {
		tx = tx.Where("success = ?", *f.Success)
	}
	if f.AppUserID != "" {
		tx = tx.Where("app_user_id = ?", f.AppUserID)
	}

	var items []models.ActivityModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) GetByID(id string) (*models.ActivityModel, error) {
	var item models.ActivityModel
	if err := s.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ClearByApp hard-deletes all entries of one application.
func (s *Service) ClearByApp(appID int64) error {
	return s.db.Unscoped().Where("app_id = ?", appID).Delete(&models.ActivityModel{}).Error
}

// DeleteOlderThan prunes entries recorded before the cutoff. Used by the
// retention cron job.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("timestamp < ?", cutoff).
		Delete(&models.ActivityModel{})
	return res.RowsAffected, res.Error
}
