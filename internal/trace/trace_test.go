package trace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finledger/internal/core"
)

func TestWrapPropagatesEventID(t *testing.T) {
	tr := New()
	var seen string
	h := tr.Wrap(func(ctx context.Context, _ core.LedgerEvent) error {
		seen = EventID(ctx)
		return nil
	})

	if err := h(context.Background(), core.LedgerEvent{Kind: core.EventCreated}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !strings.HasPrefix(seen, "evt_") {
		t.Errorf("EventID = %q, want evt_ prefix", seen)
	}
}

func TestWrapCountsOutcomes(t *testing.T) {
	tr := New()
	boom := errors.New("boom")
	fail := true
	h := tr.Wrap(func(context.Context, core.LedgerEvent) error {
		if fail {
			return boom
		}
		return nil
	})

	if err := h(context.Background(), core.LedgerEvent{}); !errors.Is(err, boom) {
		t.Fatalf("handler error = %v, want %v", err, boom)
	}
	fail = false
	for i := 0; i < 2; i++ {
		if err := h(context.Background(), core.LedgerEvent{}); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	m := tr.GetMetrics()
	if m.Processed != 2 || m.Failed != 1 {
		t.Errorf("metrics = %+v, want 2 processed and 1 failed", m)
	}
}

func TestEventIDMissing(t *testing.T) {
	if id := EventID(context.Background()); id != "" {
		t.Errorf("EventID = %q, want empty", id)
	}
}

func TestGenerateEventIDUnique(t *testing.T) {
	a, b := GenerateEventID(), GenerateEventID()
	if a == b {
		t.Errorf("ids collide: %s", a)
	}
}
