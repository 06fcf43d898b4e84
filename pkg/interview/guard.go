package interview

import "sync"

// turnGuard enforces at most one in-flight turn per session. The token is
// held only for the duration of a single SubmitTurn and released on every
// exit path, so an abandoned caller never wedges the session.
type turnGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newTurnGuard() *turnGuard {
	return &turnGuard{inFlight: make(map[string]struct{})}
}

// acquire claims the session's write token. It never blocks: a second caller
// during the same race window is refused rather than queued.
func (g *turnGuard) acquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[sessionID]; busy {
		return false
	}
	g.inFlight[sessionID] = struct{}{}
	return true
}

func (g *turnGuard) release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, sessionID)
}
