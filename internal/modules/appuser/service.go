package appuser

import (
	"context"
	"errors"
	"time"

	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/modules/application"
	"github.com/keyward/core/internal/modules/notify"
	"github.com/keyward/core/internal/pkg/pagination"
	"github.com/keyward/core/internal/pkg/response"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrAppNotFound  = errors.New("application not found")
	ErrNotOwner     = errors.New("application is not owned by this account")
	ErrUsernameUsed = errors.New("username already taken")
)

// Service manages app users. Mutations emit their events through the
// notification facade, fire-and-forget.
type Service struct {
	db       *gorm.DB
	apps     *application.Service
	notifier *notify.Notifier
	presence *Presence
}

func NewService(db *gorm.DB, apps *application.Service, notifier *notify.Notifier, presence *Presence) *Service {
	return &Service{db: db, apps: apps, notifier: notifier, presence: presence}
}

// UserStore is the read-only view the notification recorder resolves
// app-user references against. It is split from Service so the notifier can
// be built before the service that depends on it.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// GetAppUserByID satisfies notify.UserStore. A missing user is (nil, nil).
func (s *UserStore) GetAppUserByID(ctx context.Context, id string) (*models.AppUserModel, error) {
	var u models.AppUserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ensureOwnedApp checks that the numeric app id belongs to accountID.
func (s *Service) ensureOwnedApp(accountID string, appID int64) (*models.ApplicationModel, error) {
	app, err := s.apps.GetByAppID(appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrAppNotFound
	}
	if app.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return app, nil
}

// getOwned loads an app user and verifies the owning account in one step.
func (s *Service) getOwned(accountID, userID string) (*models.AppUserModel, *models.ApplicationModel, error) {
	var u models.AppUserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	app, err := s.ensureOwnedApp(accountID, u.AppID)
	if err != nil {
		if errors.Is(err, ErrNotOwner) || errors.Is(err, ErrAppNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &u, app, nil
}

func (s *Service) List(accountID string, appID int64, q pagination.Query) ([]models.AppUserModel, response.Pagination, error) {
	if _, err := s.ensureOwnedApp(accountID, appID); err != nil {
		return nil, response.Pagination{}, err
	}
	tx := s.db.Model(&models.AppUserModel{}).
		Where("app_id = ?", appID).
		Order("created_at DESC")
	var items []models.AppUserModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) Create(accountID string, dto *CreateAppUserDTO) (*models.AppUserModel, error) {
	app, err := s.ensureOwnedApp(accountID, dto.AppID)
	if err != nil {
		return nil, err
	}

	var count int64
	s.db.Model(&models.AppUserModel{}).
		Where("app_id = ? AND username = ?", dto.AppID, dto.Username).
		Count(&count)
	if count > 0 {
		return nil, ErrUsernameUsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.AppUserModel{
		AppID:     dto.AppID,
		Username:  dto.Username,
		Password:  string(hash),
		Email:     dto.Email,
		ExpiresAt: dto.ExpiresAt,
	}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, err
	}

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventUserRegister,
		userContextOf(&u), notify.Options{Metadata: notify.Metadata{"created_by": "management"}})
	return &u, nil
}

func (s *Service) Update(accountID, userID string, dto *UpdateAppUserDTO) (*models.AppUserModel, error) {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil || u == nil {
		return u, err
	}

	updates := map[string]interface{}{}
	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hash)
	}
	if dto.Email != nil {
		updates["email"] = *dto.Email
	}
	if dto.ExpiresAt != nil {
		updates["expires_at"] = *dto.ExpiresAt
	}
	if err := s.db.Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventUserUpdate,
		userContextOf(u), notify.Options{})
	return u, nil
}

func (s *Service) SetBanned(accountID, userID string, banned bool, reason string) (*models.AppUserModel, error) {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil || u == nil {
		return u, err
	}

	u.Banned = banned
	u.BanReason = reason
	if !banned {
		u.BanReason = ""
	}
	if err := s.db.Model(u).Updates(map[string]interface{}{
		"banned":     u.Banned,
		"ban_reason": u.BanReason,
	}).Error; err != nil {
		return nil, err
	}

	event := notify.EventUserUnban
	opts := notify.Options{}
	if banned {
		event = notify.EventUserBan
		opts.Metadata = notify.Metadata{"reason": reason}
		// Bans revoke all live sessions.
		s.revokeSessions(u.AppID, u.ID)
		s.presence.Clear(context.Background(), u.AppID, u.ID)
	}
	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, event, userContextOf(u), opts)
	return u, nil
}

func (s *Service) Delete(accountID, userID string) error {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return gorm.ErrRecordNotFound
	}
	if err := s.db.Delete(u).Error; err != nil {
		return err
	}
	s.revokeSessions(u.AppID, u.ID)
	s.presence.Clear(context.Background(), u.AppID, u.ID)

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventUserDelete,
		userContextOf(u), notify.Options{})
	return nil
}

// ResetHWID clears the stored hardware lock so the next login re-binds it.
func (s *Service) ResetHWID(accountID, userID string) (*models.AppUserModel, error) {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil || u == nil {
		return u, err
	}

	previous := u.HWID
	u.HWID = ""
	if err := s.db.Model(u).Update("hwid", "").Error; err != nil {
		return nil, err
	}

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventHWIDReset,
		userContextOf(u), notify.Options{Metadata: notify.Metadata{"previous_hwid": previous}})
	return u, nil
}

// ExtendExpiry pushes the expiry forward by whole days, from now when already
// expired or unset.
func (s *Service) ExtendExpiry(accountID, userID string, days int) (*models.AppUserModel, error) {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil || u == nil {
		return u, err
	}

	base := time.Now()
	if u.ExpiresAt != nil && u.ExpiresAt.After(base) {
		base = *u.ExpiresAt
	}
	next := base.AddDate(0, 0, days)
	u.ExpiresAt = &next
	if err := s.db.Model(u).Update("expires_at", next).Error; err != nil {
		return nil, err
	}

	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventSubscriptionExtended,
		userContextOf(u), notify.Options{Metadata: notify.Metadata{"days": days, "expires_at": next.UTC().Format(time.RFC3339)}})
	return u, nil
}

func (s *Service) ListSessions(accountID, userID string) ([]models.AppSessionModel, error) {
	u, _, err := s.getOwned(accountID, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, gorm.ErrRecordNotFound
	}
	var sessions []models.AppSessionModel
	err = s.db.Where("app_user_id = ? AND revoked_at IS NULL AND expires_at > ?", u.ID, time.Now()).
		Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (s *Service) KillSession(accountID, userID, sessionID string) error {
	u, app, err := s.getOwned(accountID, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return gorm.ErrRecordNotFound
	}

	now := time.Now()
	res := s.db.Model(&models.AppSessionModel{}).
		Where("id = ? AND app_user_id = ? AND revoked_at IS NULL", sessionID, u.ID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	s.presence.Clear(context.Background(), u.AppID, u.ID)
	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventSessionKilled,
		userContextOf(u), notify.Options{Metadata: notify.Metadata{"session_id": sessionID}})
	return nil
}

// IsOnline reports presence for the management user detail view.
func (s *Service) IsOnline(ctx context.Context, appID int64, userID string) bool {
	return s.presence.IsOnline(ctx, appID, userID)
}

func (s *Service) revokeSessions(appID int64, appUserID string) {
	now := time.Now()
	_ = s.db.Model(&models.AppSessionModel{}).
		Where("app_id = ? AND app_user_id = ? AND revoked_at IS NULL", appID, appUserID).
		Update("revoked_at", &now).Error
}

// CleanupExpiredSessions hard-deletes client sessions that expired or were
// revoked before the cutoff. Used by the cron job.
func CleanupExpiredSessions(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Unscoped().
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.AppSessionModel{})
	return res.RowsAffected, res.Error
}

func userContextOf(u *models.AppUserModel) *notify.UserContext {
	return &notify.UserContext{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		HWID:     u.HWID,
		IP:       u.LastIP,
	}
}
