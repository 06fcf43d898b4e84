package sessions

import (
	"context"
	"testing"
	"time"
)

func TestRegisterAndUnregister(t *testing.T) {
	tr := NewTracker()
	if tr.Count() != 0 {
		t.Fatalf("count=%d", tr.Count())
	}

	un1 := tr.Register("int-1", Handle{})
	un2 := tr.Register("int-2", Handle{})
	if tr.Count() != 2 {
		t.Fatalf("count=%d, want 2", tr.Count())
	}

	un1()
	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1", tr.Count())
	}

	// Unregister is idempotent.
	un1()
	if tr.Count() != 1 {
		t.Fatalf("count=%d after double unregister", tr.Count())
	}

	un2()
	if tr.Count() != 0 {
		t.Fatalf("count=%d, want 0", tr.Count())
	}
}

func TestRegister_SameIDEvictsPrevious(t *testing.T) {
	tr := NewTracker()
	canceled := false
	tr.Register("int-1", Handle{Cancel: func() { canceled = true }})
	un2 := tr.Register("int-1", Handle{})

	if tr.Count() != 1 {
		t.Fatalf("count=%d, want 1 after re-register", tr.Count())
	}
	if canceled {
		t.Fatalf("eviction must not call the old cancel")
	}

	un2()
	if !tr.Wait(context.Background()) {
		t.Fatalf("Wait must succeed once all sessions are gone")
	}
}

func TestWarnAllAndCancelAll(t *testing.T) {
	tr := NewTracker()
	var warns, cancels int
	un := tr.Register("int-1", Handle{
		Cancel: func() { cancels++ },
		Warn: func(code, message string) error {
			if code != "draining" {
				t.Fatalf("code=%q", code)
			}
			warns++
			return nil
		},
	})
	defer un()
	tr.Register("int-2", Handle{}) // no callbacks set

	if got := tr.WarnAll("draining", "shutting down"); got != 1 {
		t.Fatalf("warned=%d, want 1", got)
	}
	if warns != 1 {
		t.Fatalf("warns=%d", warns)
	}
	if got := tr.CancelAll(); got != 1 {
		t.Fatalf("canceled=%d, want 1", got)
	}
	if cancels != 1 {
		t.Fatalf("cancels=%d", cancels)
	}
}

func TestWait_TimesOutWithActiveSessions(t *testing.T) {
	tr := NewTracker()
	un := tr.Register("int-1", Handle{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if tr.Wait(ctx) {
		t.Fatalf("Wait must report failure while a session is live")
	}

	un()
	if !tr.Wait(context.Background()) {
		t.Fatalf("Wait must succeed after unregister")
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	un := tr.Register("x", Handle{})
	un()
	if tr.Count() != 0 || tr.WarnAll("c", "m") != 0 || tr.CancelAll() != 0 {
		t.Fatalf("nil tracker must be a no-op")
	}
	if !tr.Wait(context.Background()) {
		t.Fatalf("nil tracker Wait must succeed")
	}
}
