package application

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/keyward/core/internal/models"
	"gorm.io/gorm"
)

type CreateApplicationDTO struct {
	Name     string `json:"name"    binding:"required"`
	Version  string `json:"version"`
	HWIDLock *bool  `json:"hwid_lock"`
}

type UpdateApplicationDTO struct {
	Name     *string `json:"name"`
	Version  *string `json:"version"`
	HWIDLock *bool   `json:"hwid_lock"`
}

type applicationResponse struct {
	ID       string `json:"id"`
	AppID    int64  `json:"app_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	HWIDLock bool   `json:"hwid_lock"`
	Active   bool   `json:"active"`
	Secret   string `json:"secret,omitempty"`
}

func toResponse(a *models.ApplicationModel, includeSecret bool) applicationResponse {
	out := applicationResponse{
		ID: a.ID, AppID: a.AppID, Name: a.Name,
		Version: a.Version, HWIDLock: a.HWIDLock, Active: a.Active,
	}
	if includeSecret {
		out.Secret = a.Secret
	}
	return out
}

func newSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(accountID string) ([]models.ApplicationModel, error) {
	var items []models.ApplicationModel
	return items, s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&items).Error
}

func (s *Service) GetByID(accountID, id string) (*models.ApplicationModel, error) {
	var a models.ApplicationModel
	if err := s.db.First(&a, "id = ? AND account_id = ?", id, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetByAppID resolves an application by its numeric public id, regardless of
// owner. Used by the client authentication path.
func (s *Service) GetByAppID(appID int64) (*models.ApplicationModel, error) {
	var a models.ApplicationModel
	if err := s.db.First(&a, "app_id = ?", appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) Create(accountID string, dto *CreateApplicationDTO) (*models.ApplicationModel, error) {
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	a := models.ApplicationModel{
		AccountID: accountID,
		Name:      dto.Name,
		Version:   dto.Version,
		Secret:    secret,
		HWIDLock:  true,
		Active:    true,
	}
	if dto.HWIDLock != nil {
		a.HWIDLock = *dto.HWIDLock
	}
	return &a, s.db.Create(&a).Error
}

func (s *Service) Update(accountID, id string, dto *UpdateApplicationDTO) (*models.ApplicationModel, error) {
	a, err := s.GetByID(accountID, id)
	if err != nil || a == nil {
		return a, err
	}
	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
	}
	if dto.Version != nil {
		updates["version"] = *dto.Version
	}
	if dto.HWIDLock != nil {
		updates["hwid_lock"] = *dto.HWIDLock
	}
	return a, s.db.Model(a).Updates(updates).Error
}

func (s *Service) Delete(accountID, id string) error {
	result := s.db.Where("id = ? AND account_id = ?", id, accountID).
		Delete(&models.ApplicationModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RotateSecret replaces the application secret, invalidating existing clients.
func (s *Service) RotateSecret(accountID, id string) (*models.ApplicationModel, error) {
	a, err := s.GetByID(accountID, id)
	if err != nil || a == nil {
		return a, err
	}
	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	a.Secret = secret
	return a, s.db.Model(a).Update("secret", secret).Error
}

// SetActive pauses or resumes client authentication for the application.
func (s *Service) SetActive(accountID, id string, active bool) (*models.ApplicationModel, error) {
	a, err := s.GetByID(accountID, id)
	if err != nil || a == nil {
		return a, err
	}
	a.Active = active
	return a, s.db.Model(a).Update("active", active).Error
}
