package notify

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher fans one payload out to every eligible destination of an account.
type Dispatcher struct {
	store     DestinationStore
	deliverer *Deliverer
	logger    *zap.Logger
}

func NewDispatcher(store DestinationStore, deliverer *Deliverer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, deliverer: deliverer, logger: logger}
}

// Dispatch delivers payload to every enabled destination subscribed to event,
// concurrently, and blocks until every delivery settles. One destination's
// failure never affects another. Errors loading destinations are logged and
// absorbed; Dispatch never returns one.
func (d *Dispatcher) Dispatch(ctx context.Context, accountID, event string, p *Payload) {
	hooks, err := d.store.GetDestinationsForAccount(ctx, accountID)
	if err != nil {
		d.logger.Error("load webhook destinations",
			zap.String("account_id", accountID),
			zap.String("event", event),
			zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for i := range hooks {
		hook := &hooks[i]
		if !hook.Enabled || !subscribesTo(hook.Events, event) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.deliverer.Deliver(ctx, hook, p)
		}()
	}
	wg.Wait()
}

func subscribesTo(events []string, event string) bool {
	event = strings.ToLower(strings.TrimSpace(event))
	for _, item := range events {
		next := strings.ToLower(strings.TrimSpace(item))
		if next == "all" || next == event {
			return true
		}
	}
	return false
}
