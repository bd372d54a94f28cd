package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/keyward/core/internal/models"
	"go.uber.org/zap"
)

func testDeliverer() *Deliverer {
	d := NewDeliverer(zap.NewNop())
	d.backoffBase = time.Millisecond
	return d
}

func testPayload() *Payload {
	return &Payload{
		Event:     EventUserLogin,
		Timestamp: "2026-01-02T15:04:05Z",
		AppID:     42,
		Success:   true,
	}
}

func TestDeliverSuccess(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
	}))
	defer srv.Close()

	dest := &models.WebhookModel{PayloadURL: srv.URL, Secret: "s3cret", Enabled: true}
	if !testDeliverer().Deliver(context.Background(), dest, testPayload()) {
		t.Fatal("expected delivery to succeed")
	}

	if ct := gotHeader.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if ev := gotHeader.Get(headerEvent); ev != EventUserLogin {
		t.Errorf("%s = %q", headerEvent, ev)
	}
	if rc := gotHeader.Get(headerRetryCount); rc != "0" {
		t.Errorf("%s = %q, want 0", headerRetryCount, rc)
	}
	if ts := gotHeader.Get(headerTimestamp); ts != "2026-01-02T15:04:05Z" {
		t.Errorf("%s = %q", headerTimestamp, ts)
	}

	// The signature must cover the literal bytes received.
	want := "sha256=" + Sign(gotBody, "s3cret")
	if sig := gotHeader.Get(headerSignature); sig != want {
		t.Errorf("%s = %q, want %q", headerSignature, sig, want)
	}

	var decoded Payload
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("body is not a payload document: %v", err)
	}
	if decoded.Event != EventUserLogin || decoded.AppID != 42 {
		t.Errorf("unexpected wire payload: %+v", decoded)
	}
}

func TestDeliverOmitsSignatureWithoutSecret(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
	}))
	defer srv.Close()

	dest := &models.WebhookModel{PayloadURL: srv.URL, Enabled: true}
	if !testDeliverer().Deliver(context.Background(), dest, testPayload()) {
		t.Fatal("expected delivery to succeed")
	}
	if vals := gotHeader.Values(headerSignature); len(vals) != 0 {
		t.Fatalf("signature header must be omitted entirely, got %v", vals)
	}
}

func TestDeliverRetriesTransientStatuses(t *testing.T) {
	for _, status := range []int{500, 502, 503, 429} {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(status)
		}))

		dest := &models.WebhookModel{PayloadURL: srv.URL}
		if testDeliverer().Deliver(context.Background(), dest, testPayload()) {
			t.Errorf("status %d: delivery must fail after exhausting retries", status)
		}
		if got := attempts.Load(); got != 4 {
			t.Errorf("status %d: attempts = %d, want 4 (initial + 3 retries)", status, got)
		}
		srv.Close()
	}
}

func TestDeliverDoesNotRetryTerminalStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := &models.WebhookModel{PayloadURL: srv.URL}
	if testDeliverer().Deliver(context.Background(), dest, testPayload()) {
		t.Fatal("404 must be a terminal failure")
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on 404)", got)
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	retryCounts := make([]string, 0, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		retryCounts = append(retryCounts, r.Header.Get(headerRetryCount))
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	dest := &models.WebhookModel{PayloadURL: srv.URL}
	if !testDeliverer().Deliver(context.Background(), dest, testPayload()) {
		t.Fatal("delivery must succeed once the endpoint recovers")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	for i, want := range []string{"0", "1", "2"} {
		if retryCounts[i] != want {
			t.Errorf("attempt %d retry-count header = %q, want %q", i, retryCounts[i], want)
		}
	}
}

func TestDeliverNetworkFailureResolvesFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	dest := &models.WebhookModel{PayloadURL: url}
	if testDeliverer().Deliver(context.Background(), dest, testPayload()) {
		t.Fatal("delivery to a dead endpoint must resolve to false")
	}
}

func TestBackoffSchedule(t *testing.T) {
	d := NewDeliverer(zap.NewNop())
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, expected := range want {
		if got := d.backoffDelay(attempt); got != expected {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}
}

func TestAttemptSkipsCustomHeadersOnEmbedPath(t *testing.T) {
	var gotHeader http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	p := testPayload()
	dest := &models.WebhookModel{PayloadURL: srv.URL, Secret: "s3cret"}
	body, _ := json.Marshal(buildDiscordMessage(p))

	delivered, _ := testDeliverer().attempt(context.Background(), dest, p, body, false, 0)
	if !delivered {
		t.Fatal("expected attempt to succeed")
	}
	for _, h := range []string{headerEvent, headerRetryCount, headerTimestamp, headerSignature} {
		if vals := gotHeader.Values(h); len(vals) != 0 {
			t.Errorf("embed path must not send %s, got %v", h, vals)
		}
	}

	var msg discordMessage
	if err := json.Unmarshal(gotBody, &msg); err != nil || len(msg.Embeds) != 1 {
		t.Fatalf("expected a single-embed document, err=%v", err)
	}
}
