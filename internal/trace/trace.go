// Package trace tags each consumed ledger event with an id and logs its
// outcome and duration.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"finledger/internal/core"
)

// ContextKey type for context keys
type ContextKey string

const (
	// EventIDKey is the context key for the event trace id
	EventIDKey ContextKey = "event_id"
)

// Handler processes one ledger event.
type Handler func(ctx context.Context, ev core.LedgerEvent) error

// Metrics tracks event handling counts
type Metrics struct {
	Processed      int64
	Failed         int64
	LastDurationUs int64 // in microseconds
}

// Tracer wraps event handlers with tracing
type Tracer struct {
	metrics *Metrics
	now     func() time.Time
}

func New() *Tracer {
	return &Tracer{metrics: &Metrics{}, now: time.Now}
}

// Wrap returns next with a trace id in its context. Completion is logged at
// Info, failures at Error; both carry the duration.
func (t *Tracer) Wrap(next Handler) Handler {
	return func(ctx context.Context, ev core.LedgerEvent) error {
		start := t.now()
		eventID := GenerateEventID()
		ctx = context.WithValue(ctx, EventIDKey, eventID)

		slog.DebugContext(ctx, "Ledger event started",
			"event_id", eventID,
			"kind", ev.Kind,
			"user_id", ev.UserID,
			"transaction_id", ev.TransactionID)

		err := next(ctx, ev)

		duration := t.now().Sub(start)
		atomic.StoreInt64(&t.metrics.LastDurationUs, duration.Microseconds())

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelError
			atomic.AddInt64(&t.metrics.Failed, 1)
		} else {
			atomic.AddInt64(&t.metrics.Processed, 1)
		}

		attrs := []any{
			"event_id", eventID,
			"kind", ev.Kind,
			"transaction_id", ev.TransactionID,
			"duration_ms", duration.Milliseconds(),
			"success", err == nil,
		}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		slog.Log(ctx, level, "Ledger event completed", attrs...)
		return err
	}
}

// GenerateEventID creates a unique id for tracing one delivery
func GenerateEventID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	return "evt_" + hex.EncodeToString(bytes)
}

// EventID extracts the trace id from context
func EventID(ctx context.Context) string {
	if id, ok := ctx.Value(EventIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (t *Tracer) GetMetrics() Metrics {
	return Metrics{
		Processed:      atomic.LoadInt64(&t.metrics.Processed),
		Failed:         atomic.LoadInt64(&t.metrics.Failed),
		LastDurationUs: atomic.LoadInt64(&t.metrics.LastDurationUs),
	}
}
