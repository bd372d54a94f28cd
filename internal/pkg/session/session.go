package session

import (
	"strings"
	"time"

	"github.com/keyward/core/internal/models"
	jwtpkg "github.com/keyward/core/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

// Issue creates a DB session and signs a JWT bound to that session.
func Issue(db *gorm.DB, accountID, ip, ua string, ttl time.Duration) (string, *models.AccountSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	s := &models.AccountSession{
		AccountID: accountID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: now.Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.SignWithOptions(accountID, ttl, jwtpkg.SignOptions{SessionID: s.ID})
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

func IsActive(db *gorm.DB, accountID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		// Legacy token without sid.
		return true, nil
	}

	var count int64
	err := db.Model(&models.AccountSession{}).
		Where("id = ? AND account_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, accountID, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func Touch(db *gorm.DB, accountID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = db.Model(&models.AccountSession{}).
		Where("id = ? AND account_id = ? AND revoked_at IS NULL AND expires_at > ?", sessionID, accountID, time.Now()).
		Update("updated_at", time.Now()).Error
}

func ListActive(db *gorm.DB, accountID string) ([]models.AccountSession, error) {
	var sessions []models.AccountSession
	err := db.Where("account_id = ? AND revoked_at IS NULL AND expires_at > ?", accountID, time.Now()).
		Order("updated_at DESC, created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func Revoke(db *gorm.DB, accountID, sessionID string) error {
	now := time.Now()
	res := db.Model(&models.AccountSession{}).
		Where("id = ? AND account_id = ? AND revoked_at IS NULL", sessionID, accountID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func RevokeAllExcept(db *gorm.DB, accountID, keepSessionID string) error {
	now := time.Now()
	query := db.Model(&models.AccountSession{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID)
	if strings.TrimSpace(keepSessionID) != "" {
		query = query.Where("id <> ?", keepSessionID)
	}
	return query.Update("revoked_at", &now).Error
}

// CleanupExpired hard-deletes sessions that expired or were revoked before cutoff.
func CleanupExpired(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Unscoped().
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.AccountSession{})
	return res.RowsAffected, res.Error
}
