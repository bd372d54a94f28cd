package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/modules/notify"
	"gorm.io/gorm"
)

type CreateWebhookDTO struct {
	PayloadURL string   `json:"payload_url" binding:"required,url"`
	Events     []string `json:"events"      binding:"required,min=1"`
	Enabled    *bool    `json:"enabled"`
	Secret     string   `json:"secret"`
}

type UpdateWebhookDTO struct {
	PayloadURL *string  `json:"payload_url"`
	Events     []string `json:"events"`
	Enabled    *bool    `json:"enabled"`
	Secret     *string  `json:"secret"`
}

// normalizeEvents lowercases, dedupes, and validates event names against the
// notification vocabulary. "all" collapses the set to the wildcard.
func normalizeEvents(events []string) []string {
	if len(events) == 0 {
		return []string{}
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(events))
	for _, event := range events {
		next := strings.ToLower(strings.TrimSpace(event))
		if next == "" {
			continue
		}
		if next == "all" {
			return []string{"all"}
		}
		if !notify.IsKnownEvent(next) {
			continue
		}
		if _, ok := seen[next]; ok {
			continue
		}
		seen[next] = struct{}{}
		out = append(out, next)
	}
	return out
}

type webhookResponse struct {
	ID         string    `json:"id"`
	PayloadURL string    `json:"payload_url"`
	Events     []string  `json:"events"`
	Enabled    bool      `json:"enabled"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

func toResponse(w *models.WebhookModel) webhookResponse {
	events := []string(w.Events)
	if events == nil {
		events = []string{}
	}
	return webhookResponse{
		ID: w.ID, PayloadURL: w.PayloadURL, Events: events,
		Enabled: w.Enabled,
		Created: w.CreatedAt, Modified: w.UpdatedAt,
	}
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(accountID string) ([]models.WebhookModel, error) {
	var items []models.WebhookModel
	return items, s.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&items).Error
}

func (s *Service) GetByID(accountID, id string) (*models.WebhookModel, error) {
	var w models.WebhookModel
	if err := s.db.First(&w, "id = ? AND account_id = ?", id, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (s *Service) Create(accountID string, dto *CreateWebhookDTO) (*models.WebhookModel, error) {
	events := normalizeEvents(dto.Events)
	if len(events) == 0 {
		return nil, fmt.Errorf("events is empty")
	}

	secret := strings.TrimSpace(dto.Secret)
	if secret == "" {
		secretBytes := make([]byte, 20)
		if _, err := rand.Read(secretBytes); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(secretBytes)
	}

	w := models.WebhookModel{
		AccountID:  accountID,
		PayloadURL: dto.PayloadURL,
		Events:     events,
		Secret:     secret,
		Enabled:    true,
	}
	if dto.Enabled != nil {
		w.Enabled = *dto.Enabled
	}
	return &w, s.db.Create(&w).Error
}

func (s *Service) Update(accountID, id string, dto *UpdateWebhookDTO) (*models.WebhookModel, error) {
	w, err := s.GetByID(accountID, id)
	if err != nil || w == nil {
		return w, err
	}
	updates := map[string]interface{}{}
	if dto.PayloadURL != nil {
		updates["payload_url"] = *dto.PayloadURL
	}
	if dto.Events != nil {
		events := normalizeEvents(dto.Events)
		if len(events) == 0 {
			return nil, fmt.Errorf("events is empty")
		}
		updates["events"] = models.StringArray(events)
	}
	if dto.Enabled != nil {
		updates["enabled"] = *dto.Enabled
	}
	if dto.Secret != nil {
		updates["secret"] = strings.TrimSpace(*dto.Secret)
	}
	return w, s.db.Model(w).Updates(updates).Error
}

func (s *Service) Delete(accountID, id string) error {
	result := s.db.Where("id = ? AND account_id = ?", id, accountID).
		Delete(&models.WebhookModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetDestinationsForAccount satisfies notify.DestinationStore. Enabled and
// subscription filtering happens in the dispatcher.
func (s *Service) GetDestinationsForAccount(ctx context.Context, accountID string) ([]models.WebhookModel, error) {
	var hooks []models.WebhookModel
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&hooks).Error
	return hooks, err
}
