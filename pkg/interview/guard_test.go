package interview

import (
	"sync"
	"testing"
)

func TestTurnGuard_RefusesSecondAcquire(t *testing.T) {
	g := newTurnGuard()
	if !g.acquire("s1") {
		t.Fatalf("first acquire refused")
	}
	if g.acquire("s1") {
		t.Fatalf("second acquire must be refused, not queued")
	}
	// Other sessions are independent.
	if !g.acquire("s2") {
		t.Fatalf("acquire for a different session refused")
	}
	g.release("s1")
	if !g.acquire("s1") {
		t.Fatalf("acquire after release refused")
	}
}

func TestTurnGuard_ExactlyOneWinnerUnderRace(t *testing.T) {
	g := newTurnGuard()
	const n = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.acquire("s1") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)
	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("winners=%d, want exactly 1", count)
	}
}
