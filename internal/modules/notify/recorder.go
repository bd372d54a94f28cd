package notify

import (
	"context"
	"time"

	"github.com/keyward/core/internal/models"
	"go.uber.org/zap"
)

// Recorder persists activity log entries best-effort. A recording failure must
// never block the notification delivery that follows it.
type Recorder struct {
	users      UserStore
	activities ActivityStore
	logger     *zap.Logger
}

func NewRecorder(users UserStore, activities ActivityStore, logger *zap.Logger) *Recorder {
	return &Recorder{users: users, activities: activities, logger: logger}
}

// Entry describes one activity log record.
type Entry struct {
	AppID        int64
	AppUserID    string
	Event        string
	Success      bool
	ErrorMessage string
	IP           string
	HWID         string
	UserAgent    string
	Metadata     Metadata
}

// Record appends entry to the activity log. The app-user reference is written
// only when it resolves against the user store; an unresolvable reference is
// dropped, not treated as a failure. Store errors are logged and absorbed.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	appUserID := ""
	if e.AppUserID != "" {
		user, err := r.users.GetAppUserByID(ctx, e.AppUserID)
		switch {
		case err != nil:
			// A store failure also drops the reference; logged louder than a
			// plainly absent user so the two cases stay distinguishable.
			r.logger.Warn("resolve app user for activity",
				zap.String("app_user_id", e.AppUserID),
				zap.Error(err))
		case user == nil:
			r.logger.Debug("activity references unknown app user",
				zap.String("app_user_id", e.AppUserID))
		default:
			appUserID = user.ID
		}
	}

	entry := &models.ActivityModel{
		AppID:        e.AppID,
		AppUserID:    appUserID,
		Event:        e.Event,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
		IP:           e.IP,
		HWID:         e.HWID,
		UserAgent:    e.UserAgent,
		Metadata:     e.Metadata,
		Timestamp:    time.Now(),
	}
	if err := r.activities.Append(ctx, entry); err != nil {
		r.logger.Error("append activity",
			zap.Int64("app_id", e.AppID),
			zap.String("event", e.Event),
			zap.Error(err))
	}
}
