package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/keyward/core/internal/models"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	users map[string]*models.AppUserModel
	err   error
}

func (f *fakeUserStore) GetAppUserByID(ctx context.Context, id string) (*models.AppUserModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeActivityStore struct {
	mu      sync.Mutex
	entries []*models.ActivityModel
	err     error
}

func (f *fakeActivityStore) Append(ctx context.Context, entry *models.ActivityModel) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func testNotifier(dests DestinationStore, users UserStore, activities ActivityStore) *Notifier {
	logger := zap.NewNop()
	deliverer := NewDeliverer(logger)
	deliverer.backoffBase = 1
	return &Notifier{
		recorder:   NewRecorder(users, activities, logger),
		dispatcher: NewDispatcher(dests, deliverer, logger),
		logger:     logger,
	}
}

func TestNotifyDeliversDespiteActivityFailure(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	dests := &fakeDestinationStore{hooks: []models.WebhookModel{
		{PayloadURL: srv.URL, Enabled: true, Events: models.StringArray{"all"}},
	}}
	activities := &fakeActivityStore{err: errors.New("disk full")}
	n := testNotifier(dests, &fakeUserStore{}, activities)

	n.Notify(context.Background(), "acct-1", 42, EventUserLogin, nil, Options{})

	if len(gotBody) == 0 {
		t.Fatal("delivery must still happen when activity logging fails")
	}
}

func TestNotifyDropsUnresolvableUserReference(t *testing.T) {
	dests := &fakeDestinationStore{}
	activities := &fakeActivityStore{}
	n := testNotifier(dests, &fakeUserStore{}, activities)

	user := &UserContext{ID: "ghost", Username: "casper"}
	n.Notify(context.Background(), "acct-1", 42, EventUserLogin, user, Options{})

	if len(activities.entries) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(activities.entries))
	}
	if got := activities.entries[0].AppUserID; got != "" {
		t.Fatalf("unresolvable user id must be omitted, got %q", got)
	}
}

func TestNotifyKeepsResolvedUserReference(t *testing.T) {
	u := &models.AppUserModel{Username: "alice"}
	u.ID = "u-1"

	dests := &fakeDestinationStore{}
	activities := &fakeActivityStore{}
	n := testNotifier(dests, &fakeUserStore{users: map[string]*models.AppUserModel{"u-1": u}}, activities)

	n.Notify(context.Background(), "acct-1", 42, EventUserLogin, &UserContext{ID: "u-1", Username: "alice"}, Options{})

	if len(activities.entries) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(activities.entries))
	}
	if got := activities.entries[0].AppUserID; got != "u-1" {
		t.Fatalf("resolved user id must be persisted, got %q", got)
	}
}

func TestNotifyHWIDFallback(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	dests := &fakeDestinationStore{hooks: []models.WebhookModel{
		{PayloadURL: srv.URL, Enabled: true, Events: models.StringArray{"all"}},
	}}
	n := testNotifier(dests, &fakeUserStore{}, &fakeActivityStore{})

	user := &UserContext{ID: "u-1", Username: "alice"}
	n.Notify(context.Background(), "acct-1", 42, EventUserLogin, user, Options{HWID: "HW-FALLBACK"})

	var p Payload
	if err := json.Unmarshal(gotBody, &p); err != nil {
		t.Fatal(err)
	}
	if p.User == nil || p.User.HWID != "HW-FALLBACK" {
		t.Fatalf("payload user HWID must fall back to options, got %+v", p.User)
	}
}

func TestNotifyDefaultsToSuccess(t *testing.T) {
	activities := &fakeActivityStore{}
	n := testNotifier(&fakeDestinationStore{}, &fakeUserStore{}, activities)

	n.Notify(context.Background(), "acct-1", 42, EventUserRegister, nil, Options{})

	if len(activities.entries) != 1 || !activities.entries[0].Success {
		t.Fatal("success must default to true")
	}
}

func TestNotifyRecordsFailure(t *testing.T) {
	activities := &fakeActivityStore{}
	n := testNotifier(&fakeDestinationStore{}, &fakeUserStore{}, activities)

	n.Notify(context.Background(), "acct-1", 42, EventUserLogin, nil, Failure("bad password"))

	entry := activities.entries[0]
	if entry.Success {
		t.Error("failure options must record success=false")
	}
	if entry.ErrorMessage != "bad password" {
		t.Errorf("error message = %q", entry.ErrorMessage)
	}
}

func TestRecorderAbsorbsUserStoreFailure(t *testing.T) {
	activities := &fakeActivityStore{}
	r := NewRecorder(&fakeUserStore{err: errors.New("store down")}, activities, zap.NewNop())

	r.Record(context.Background(), Entry{AppID: 42, AppUserID: "u-1", Event: EventUserLogin, Success: true})

	if len(activities.entries) != 1 {
		t.Fatalf("entry must still be appended, got %d", len(activities.entries))
	}
	if activities.entries[0].AppUserID != "" {
		t.Fatal("user reference must be dropped when resolution fails")
	}
}
