package appuser

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/keyward/core/internal/models"
	"github.com/keyward/core/internal/modules/notify"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Client-facing sentinel errors. Handlers map these onto response codes.
var (
	ErrClientAppNotFound   = errors.New("unknown application")
	ErrAppPaused           = errors.New("application is paused")
	ErrBadAppSecret        = errors.New("invalid application secret")
	ErrBlacklisted         = errors.New("access denied")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserBanned          = errors.New("user is banned")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrHWIDMismatch        = errors.New("hardware id mismatch")
	ErrSessionInvalid      = errors.New("session invalid or expired")
)

const clientSessionTTL = 24 * time.Hour

// ClientContext carries per-request client details into the pipeline so
// blacklist checks and activity records see the real caller.
type ClientContext struct {
	IP        string
	UserAgent string
}

type hwidDecision int

const (
	hwidOK hwidDecision = iota
	hwidAdopt
	hwidReject
)

// hwidGate decides what to do with the hardware id presented at login.
// A user with no stored HWID adopts the presented one on first login.
func hwidGate(lockEnabled bool, stored, presented string) hwidDecision {
	if !lockEnabled {
		return hwidOK
	}
	if presented == "" {
		return hwidReject
	}
	if stored == "" {
		return hwidAdopt
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1 {
		return hwidOK
	}
	return hwidReject
}

// resolveApp validates the app id + secret pair sent by the client.
func (s *Service) resolveApp(appID int64, secret string) (*models.ApplicationModel, error) {
	app, err := s.apps.GetByAppID(appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrClientAppNotFound
	}
	if subtle.ConstantTimeCompare([]byte(app.Secret), []byte(secret)) != 1 {
		return nil, ErrBadAppSecret
	}
	if !app.Active {
		return nil, ErrAppPaused
	}
	return app, nil
}

// checkBlacklist returns the matched entry kind, or "" when clean.
func (s *Service) checkBlacklist(appID int64, hwid, ip string) (string, error) {
	var entries []models.BlacklistModel
	err := s.db.
		Where("app_id = ? AND ((kind = ? AND value = ?) OR (kind = ? AND value = ?))",
			appID, models.BlacklistKindHWID, hwid, models.BlacklistKindIP, ip).
		Limit(1).Find(&entries).Error
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].Kind, nil
}

// ClientLogin runs the full authentication pipeline for an application end
// user: app secret, pause state, blacklist, credentials, ban, expiry, HWID
// lock, then session issuance. Every rejection emits its failure event.
func (s *Service) ClientLogin(dto *ClientLoginDTO, cc ClientContext) (*models.AppSessionModel, *models.AppUserModel, error) {
	app, err := s.resolveApp(dto.AppID, dto.Secret)
	if err != nil {
		return nil, nil, err
	}

	baseOpts := notify.Options{IP: cc.IP, HWID: dto.HWID, UserAgent: cc.UserAgent}
	emit := func(event string, user *notify.UserContext, opts notify.Options) {
		opts.IP, opts.HWID, opts.UserAgent = cc.IP, dto.HWID, cc.UserAgent
		go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, event, user, opts)
	}

	if kind, err := s.checkBlacklist(app.AppID, dto.HWID, cc.IP); err != nil {
		return nil, nil, err
	} else if kind != "" {
		opts := notify.Failure("blacklisted " + kind)
		opts.Metadata = notify.Metadata{"kind": kind, "username": dto.Username}
		emit(notify.EventBlacklistHit, nil, opts)
		return nil, nil, ErrBlacklisted
	}

	var user models.AppUserModel
	if err := s.db.First(&user, "app_id = ? AND username = ?", app.AppID, dto.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			emit(notify.EventUserLogin, &notify.UserContext{Username: dto.Username},
				notify.Failure("unknown username"))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	uc := userContextOf(&user)

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)) != nil {
		emit(notify.EventUserLogin, uc, notify.Failure("wrong password"))
		return nil, nil, ErrInvalidCredentials
	}

	if user.Banned {
		opts := notify.Failure("user is banned")
		if user.BanReason != "" {
			opts.Metadata = notify.Metadata{"reason": user.BanReason}
		}
		emit(notify.EventUserLogin, uc, opts)
		return nil, nil, ErrUserBanned
	}

	if user.ExpiresAt != nil && user.ExpiresAt.Before(time.Now()) {
		opts := notify.Failure("subscription expired")
		opts.Metadata = notify.Metadata{"expired_at": user.ExpiresAt.UTC().Format(time.RFC3339)}
		emit(notify.EventSubscriptionExpired, uc, opts)
		return nil, nil, ErrSubscriptionExpired
	}

	switch hwidGate(app.HWIDLock, user.HWID, dto.HWID) {
	case hwidAdopt:
		user.HWID = dto.HWID
	case hwidReject:
		opts := notify.Failure("hardware id mismatch")
		opts.Metadata = notify.Metadata{"stored_hwid": user.HWID, "presented_hwid": dto.HWID}
		emit(notify.EventHWIDMismatch, uc, opts)
		return nil, nil, ErrHWIDMismatch
	}

	session, err := s.issueSession(app.AppID, &user, dto.HWID, cc)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user.LastIP = cc.IP
	user.LastUserAgent = cc.UserAgent
	user.LastLoginAt = &now
	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"hwid":            user.HWID,
		"last_ip":         user.LastIP,
		"last_user_agent": user.LastUserAgent,
		"last_login_at":   now,
	}).Error; err != nil {
		return nil, nil, err
	}

	s.presence.Touch(context.Background(), app.AppID, user.ID)
	emit(notify.EventUserLogin, userContextOf(&user), baseOpts)
	return session, &user, nil
}

// ClientRegister creates an app user from the client side and logs them in.
func (s *Service) ClientRegister(dto *ClientRegisterDTO, cc ClientContext) (*models.AppSessionModel, *models.AppUserModel, error) {
	app, err := s.resolveApp(dto.AppID, dto.Secret)
	if err != nil {
		return nil, nil, err
	}

	if kind, err := s.checkBlacklist(app.AppID, dto.HWID, cc.IP); err != nil {
		return nil, nil, err
	} else if kind != "" {
		opts := notify.Failure("blacklisted " + kind)
		opts.Metadata = notify.Metadata{"kind": kind, "username": dto.Username}
		opts.IP, opts.HWID, opts.UserAgent = cc.IP, dto.HWID, cc.UserAgent
		go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventBlacklistHit, nil, opts)
		return nil, nil, ErrBlacklisted
	}

	var count int64
	s.db.Model(&models.AppUserModel{}).
		Where("app_id = ? AND username = ?", app.AppID, dto.Username).
		Count(&count)
	if count > 0 {
		return nil, nil, ErrUsernameUsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	user := models.AppUserModel{
		AppID:         app.AppID,
		Username:      dto.Username,
		Password:      string(hash),
		Email:         dto.Email,
		HWID:          dto.HWID,
		LastIP:        cc.IP,
		LastUserAgent: cc.UserAgent,
		LastLoginAt:   &now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, nil, err
	}

	session, err := s.issueSession(app.AppID, &user, dto.HWID, cc)
	if err != nil {
		return nil, nil, err
	}

	s.presence.Touch(context.Background(), app.AppID, user.ID)
	go s.notifier.Notify(context.Background(), app.AccountID, app.AppID, notify.EventUserRegister,
		userContextOf(&user), notify.Options{IP: cc.IP, HWID: dto.HWID, UserAgent: cc.UserAgent})
	return session, &user, nil
}

// ClientValidateSession checks a session token issued by ClientLogin.
func (s *Service) ClientValidateSession(dto *ClientSessionDTO) (*models.AppSessionModel, *models.AppUserModel, error) {
	var session models.AppSessionModel
	err := s.db.First(&session, "app_id = ? AND token = ?", dto.AppID, dto.Token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionInvalid
		}
		return nil, nil, err
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now()) {
		return nil, nil, ErrSessionInvalid
	}

	var user models.AppUserModel
	if err := s.db.First(&user, "id = ?", session.AppUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionInvalid
		}
		return nil, nil, err
	}
	if user.Banned {
		return nil, nil, ErrUserBanned
	}

	s.presence.Touch(context.Background(), session.AppID, user.ID)
	return &session, &user, nil
}

// ClientLogout revokes the presented session token. Unknown tokens are a
// no-op so logout never leaks whether a token existed.
func (s *Service) ClientLogout(dto *ClientSessionDTO) error {
	now := time.Now()
	return s.db.Model(&models.AppSessionModel{}).
		Where("app_id = ? AND token = ? AND revoked_at IS NULL", dto.AppID, dto.Token).
		Update("revoked_at", &now).Error
}

func (s *Service) issueSession(appID int64, user *models.AppUserModel, hwid string, cc ClientContext) (*models.AppSessionModel, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	session := models.AppSessionModel{
		AppID:     appID,
		AppUserID: user.ID,
		Token:     token,
		IP:        cc.IP,
		UserAgent: cc.UserAgent,
		HWID:      hwid,
		ExpiresAt: time.Now().Add(clientSessionTTL),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
