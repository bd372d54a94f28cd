// Package notify implements the event notification pipeline: every significant
// application event is appended to the activity log and fanned out to the
// account's registered webhook destinations, with per-destination formatting,
// HMAC signing, and retry. Nothing in this package propagates an error back to
// its caller; the pipeline must never be the reason a request fails.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options carries the optional details of an event.
type Options struct {
	Success      *bool // nil means true
	ErrorMessage string
	Metadata     Metadata
	IP           string
	HWID         string
	UserAgent    string
}

// Notifier is the single entry point the rest of the system uses to trigger
// activity logging plus webhook delivery. Construct one per process and inject
// it into the handlers that need it.
type Notifier struct {
	recorder   *Recorder
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func New(destinations DestinationStore, users UserStore, activities ActivityStore, logger *zap.Logger) *Notifier {
	return &Notifier{
		recorder:   NewRecorder(users, activities, logger),
		dispatcher: NewDispatcher(destinations, NewDeliverer(logger), logger),
		logger:     logger,
	}
}

// Notify records the event and fans it out to the account's destinations, in
// that order. A recording failure never prevents delivery. Notify blocks until
// all deliveries settle; request handlers call it in a goroutine.
func (n *Notifier) Notify(ctx context.Context, accountID string, appID int64, event string, user *UserContext, opts Options) {
	success := true
	if opts.Success != nil {
		success = *opts.Success
	}

	hwid := opts.HWID
	appUserID := ""
	if user != nil {
		appUserID = user.ID
		if user.HWID != "" {
			hwid = user.HWID
		}
	}

	n.recorder.Record(ctx, Entry{
		AppID:        appID,
		AppUserID:    appUserID,
		Event:        event,
		Success:      success,
		ErrorMessage: opts.ErrorMessage,
		IP:           opts.IP,
		HWID:         hwid,
		UserAgent:    opts.UserAgent,
		Metadata:     opts.Metadata,
	})

	p := &Payload{
		Event:        event,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		AppID:        appID,
		Success:      success,
		ErrorMessage: opts.ErrorMessage,
		Metadata:     opts.Metadata,
	}
	if user != nil {
		uc := *user
		if uc.HWID == "" {
			uc.HWID = opts.HWID
		}
		if uc.IP == "" {
			uc.IP = opts.IP
		}
		if uc.UserAgent == "" {
			uc.UserAgent = opts.UserAgent
		}
		p.User = &uc
	}

	n.dispatcher.Dispatch(ctx, accountID, event, p)
}

// Failure is shorthand for Options marking an unsuccessful event.
func Failure(errorMessage string) Options {
	success := false
	return Options{Success: &success, ErrorMessage: errorMessage}
}
