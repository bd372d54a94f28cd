package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/keyward/core/internal/models"
	"go.uber.org/zap"
)

const (
	deliverTimeout     = 20 * time.Second
	deliverMaxRetries  = 3
	deliverBackoffBase = time.Second

	headerEvent      = "X-Webhook-Event"
	headerRetryCount = "X-Webhook-Retry-Count"
	headerTimestamp  = "X-Webhook-Timestamp"
	headerSignature  = "X-Webhook-Signature"

	deliverUserAgent = "keyward-core/1.0"
)

// Deliverer posts notification payloads to a single destination with timeout,
// retry, and backoff. All failure modes resolve to a boolean; it never panics
// or returns an error to the caller.
type Deliverer struct {
	client      *http.Client
	logger      *zap.Logger
	maxRetries  int
	backoffBase time.Duration
}

func NewDeliverer(logger *zap.Logger) *Deliverer {
	return &Deliverer{
		client:      &http.Client{Timeout: deliverTimeout},
		logger:      logger,
		maxRetries:  deliverMaxRetries,
		backoffBase: deliverBackoffBase,
	}
}

// Deliver formats, signs, and posts payload to dest. The wire body is
// serialized exactly once so the signature always covers the literal bytes
// sent. Transient failures (5xx, 429, network errors) are retried with
// exponential backoff; the return value reports whether any attempt landed.
func (d *Deliverer) Deliver(ctx context.Context, dest *models.WebhookModel, p *Payload) bool {
	wire, passthrough := formatWireBody(p, dest)
	body, err := json.Marshal(wire)
	if err != nil {
		d.logger.Error("marshal webhook body",
			zap.String("url", dest.PayloadURL),
			zap.String("event", p.Event),
			zap.Error(err))
		return false
	}

	for attempt := 0; ; attempt++ {
		delivered, retryable := d.attempt(ctx, dest, p, body, passthrough, attempt)
		if delivered {
			return true
		}
		if !retryable || attempt >= d.maxRetries {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d.backoffDelay(attempt)):
		}
	}
}

// backoffDelay is 2^attempt times the base: 1s, 2s, 4s with defaults.
func (d *Deliverer) backoffDelay(attempt int) time.Duration {
	return d.backoffBase << attempt
}

func (d *Deliverer) attempt(ctx context.Context, dest *models.WebhookModel, p *Payload, body []byte, passthrough bool, attempt int) (delivered, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest.PayloadURL, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("build webhook request",
			zap.String("url", dest.PayloadURL),
			zap.Error(err))
		return false, false
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", deliverUserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")

	// Discord rejects or ignores unrecognized headers, so the custom ones ride
	// only on the pass-through path.
	if passthrough {
		req.Header.Set(headerEvent, p.Event)
		req.Header.Set(headerRetryCount, strconv.Itoa(attempt))
		req.Header.Set(headerTimestamp, p.Timestamp)
		if dest.Secret != "" {
			req.Header.Set(headerSignature, "sha256="+Sign(body, dest.Secret))
		}
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook request failed",
			zap.String("url", dest.PayloadURL),
			zap.String("event", p.Event),
			zap.Int("attempt", attempt),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return false, true
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	d.logger.Info("webhook attempt",
		zap.String("url", dest.PayloadURL),
		zap.String("event", p.Event),
		zap.Int("attempt", attempt),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return true, false
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return false, true
	default:
		return false, false
	}
}
