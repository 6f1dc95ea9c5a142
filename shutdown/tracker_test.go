package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTracker_BeginEnd(t *testing.T) {
	tr := NewTracker()

	if !tr.Begin("generate") || !tr.Begin("generate") || !tr.Begin("warmup") {
		t.Fatal("Begin on an open tracker should succeed")
	}
	if tr.Active() != 3 {
		t.Errorf("Active() = %d, want 3", tr.Active())
	}
	names := tr.ActiveNames()
	if len(names) != 2 || names[0] != "generate" || names[1] != "warmup" {
		t.Errorf("ActiveNames() = %v", names)
	}

	tr.End("generate")
	tr.End("warmup")
	if names := tr.ActiveNames(); len(names) != 1 || names[0] != "generate" {
		t.Errorf("ActiveNames() after End = %v", names)
	}
	tr.End("generate")
	if tr.Active() != 0 {
		t.Errorf("Active() = %d, want 0", tr.Active())
	}
}

func TestTracker_CloseRejects(t *testing.T) {
	tr := NewTracker()
	tr.Close()

	if tr.Begin("generate") {
		t.Error("Begin after Close should fail")
	}
	if !tr.Closed() {
		t.Error("Closed() should be true")
	}
	if err := tr.Wait(context.Background()); err != nil {
		t.Errorf("Wait on idle closed tracker: %v", err)
	}
}

func TestTracker_WaitForInFlight(t *testing.T) {
	tr := NewTracker()
	tr.Begin("generate")
	tr.Close()

	done := make(chan error, 1)
	go func() { done <- tr.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while an operation was active")
	case <-time.After(20 * time.Millisecond):
	}

	tr.End("generate")
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the operation ended")
	}
}

func TestTracker_WaitTimeout(t *testing.T) {
	tr := NewTracker()
	tr.Begin("generate")
	tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTracker_WaitOpenTrackerBlocks(t *testing.T) {
	tr := NewTracker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx); err == nil {
		t.Error("Wait on an open tracker should block until ctx ends")
	}
}
