package appuser

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/keyward/core/internal/pkg/redis"
)

const presenceTTL = 10 * time.Minute

// Presence tracks which app users were recently seen, keyed per application.
// Logins and session validations refresh the mark; it decays on its own.
type Presence struct {
	rc *pkgredis.Client
}

func NewPresence(rc *pkgredis.Client) *Presence { return &Presence{rc: rc} }

func presenceKey(appID int64, userID string) string {
	return fmt.Sprintf("kw:online:%d:%s", appID, userID)
}

// Touch marks the user online. Failures are ignored, presence is advisory.
func (p *Presence) Touch(ctx context.Context, appID int64, userID string) {
	if p == nil || p.rc == nil {
		return
	}
	_ = p.rc.Set(ctx, presenceKey(appID, userID), "1", presenceTTL)
}

// IsOnline reports whether the user was seen within the presence window.
func (p *Presence) IsOnline(ctx context.Context, appID int64, userID string) bool {
	if p == nil || p.rc == nil {
		return false
	}
	ok, err := p.rc.Exists(ctx, presenceKey(appID, userID))
	return err == nil && ok
}

// Clear drops the mark, used when a session is killed or the user is banned.
func (p *Presence) Clear(ctx context.Context, appID int64, userID string) {
	if p == nil || p.rc == nil {
		return
	}
	_ = p.rc.Del(ctx, presenceKey(appID, userID))
}
