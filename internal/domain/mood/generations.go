package mood

import (
	"context"
	"sync"
)

// generations tracks the latest submission per session. Starting a newer
// submission cancels the older one's context, and the older result is
// discarded even if it already finished.
type generations struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]generation
}

type generation struct {
	id     uint64
	cancel context.CancelFunc
}

type ticket struct {
	session string
	id      uint64
}

func newGenerations() *generations {
	return &generations{latest: make(map[string]generation)}
}

// begin registers a submission. Without a session id nothing is tracked.
func (g *generations) begin(parent context.Context, session string) (context.Context, ticket, func()) {
	if session == "" {
		return parent, ticket{}, func() {}
	}
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	g.next++
	id := g.next
	if prev, ok := g.latest[session]; ok {
		prev.cancel()
	}
	g.latest[session] = generation{id: id, cancel: cancel}
	g.mu.Unlock()

	release := func() {
		cancel()
		g.mu.Lock()
		if cur, ok := g.latest[session]; ok && cur.id == id {
			delete(g.latest, session)
		}
		g.mu.Unlock()
	}
	return ctx, ticket{session: session, id: id}, release
}

func (g *generations) isCurrent(t ticket) bool {
	if t.session == "" {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.latest[t.session]
	return ok && cur.id == t.id
}

func (g *generations) inFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.latest)
}
