package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keyward/core/internal/models"
	"go.uber.org/zap"
)

type fakeDestinationStore struct {
	hooks []models.WebhookModel
	err   error
}

func (f *fakeDestinationStore) GetDestinationsForAccount(ctx context.Context, accountID string) ([]models.WebhookModel, error) {
	return f.hooks, f.err
}

func countingServer(hits *atomic.Int32, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
}

func TestDispatchFiltersDestinations(t *testing.T) {
	var hitsA, hitsB, hitsC atomic.Int32
	srvA := countingServer(&hitsA, http.StatusOK)
	defer srvA.Close()
	srvB := countingServer(&hitsB, http.StatusOK)
	defer srvB.Close()
	srvC := countingServer(&hitsC, http.StatusOK)
	defer srvC.Close()

	store := &fakeDestinationStore{hooks: []models.WebhookModel{
		{PayloadURL: srvA.URL, Enabled: true, Events: models.StringArray{EventUserLogin}},
		{PayloadURL: srvB.URL, Enabled: false, Events: models.StringArray{EventUserLogin}},
		{PayloadURL: srvC.URL, Enabled: true, Events: models.StringArray{EventUserBan}},
	}}

	d := NewDispatcher(store, testDeliverer(), zap.NewNop())
	d.Dispatch(context.Background(), "acct-1", EventUserLogin, testPayload())

	if got := hitsA.Load(); got != 1 {
		t.Errorf("subscribed destination hits = %d, want 1", got)
	}
	if got := hitsB.Load(); got != 0 {
		t.Errorf("disabled destination hits = %d, want 0", got)
	}
	if got := hitsC.Load(); got != 0 {
		t.Errorf("unsubscribed destination hits = %d, want 0", got)
	}
}

func TestDispatchWildcardSubscription(t *testing.T) {
	var hits atomic.Int32
	srv := countingServer(&hits, http.StatusOK)
	defer srv.Close()

	store := &fakeDestinationStore{hooks: []models.WebhookModel{
		{PayloadURL: srv.URL, Enabled: true, Events: models.StringArray{"all"}},
	}}

	d := NewDispatcher(store, testDeliverer(), zap.NewNop())
	d.Dispatch(context.Background(), "acct-1", EventHWIDReset, testPayload())

	if got := hits.Load(); got != 1 {
		t.Fatalf("wildcard destination hits = %d, want 1", got)
	}
}

func TestDispatchSettleAll(t *testing.T) {
	var failingHits, okHits atomic.Int32
	failing := countingServer(&failingHits, http.StatusInternalServerError)
	defer failing.Close()
	ok := countingServer(&okHits, http.StatusOK)
	defer ok.Close()

	store := &fakeDestinationStore{hooks: []models.WebhookModel{
		{PayloadURL: failing.URL, Enabled: true, Events: models.StringArray{EventUserLogin}},
		{PayloadURL: ok.URL, Enabled: true, Events: models.StringArray{EventUserLogin}},
	}}

	deliverer := testDeliverer()
	deliverer.maxRetries = 0
	d := NewDispatcher(store, deliverer, zap.NewNop())
	d.Dispatch(context.Background(), "acct-1", EventUserLogin, testPayload())

	if got := failingHits.Load(); got != 1 {
		t.Errorf("failing destination hits = %d, want 1", got)
	}
	if got := okHits.Load(); got != 1 {
		t.Errorf("healthy destination must still get its delivery, hits = %d", got)
	}
}

func TestDispatchAbsorbsLoadErrors(t *testing.T) {
	store := &fakeDestinationStore{err: errors.New("db down")}
	d := NewDispatcher(store, testDeliverer(), zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Dispatch(context.Background(), "acct-1", EventUserLogin, testPayload())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch must return promptly when loading destinations fails")
	}
}

func TestSubscribesTo(t *testing.T) {
	cases := []struct {
		events []string
		event  string
		want   bool
	}{
		{[]string{"user_login"}, "user_login", true},
		{[]string{"USER_LOGIN"}, "user_login", true},
		{[]string{"all"}, "anything", true},
		{[]string{"user_ban"}, "user_login", false},
		{nil, "user_login", false},
	}
	for _, tc := range cases {
		if got := subscribesTo(tc.events, tc.event); got != tc.want {
			t.Errorf("subscribesTo(%v, %q) = %v, want %v", tc.events, tc.event, got, tc.want)
		}
	}
}
