package service

import (
	"context"
	"sync"

	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
)

// Notifier receives events after the change they describe has been saved.
// Delivery is best effort; errors are logged and never undo the change.
type Notifier interface {
	Notify(ctx context.Context, ev economy.Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev economy.Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev economy.Event) error {
	return f(ctx, ev)
}

// RecordingNotifier keeps every event in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []economy.Event
}

// Notify records ev.
func (r *RecordingNotifier) Notify(_ context.Context, ev economy.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *RecordingNotifier) Events() []economy.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]economy.Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *RecordingNotifier) Kinds() []economy.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]economy.EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}
