package services

import (
	"sort"
	"sync"
)

// Guard is the in-process set of rule ids currently being processed. It
// makes overlapping batches mutually exclusive per rule within one process
// and offers no protection across processes.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

// TryAcquire adds id to the set and reports false when it was already there.
func (g *Guard) TryAcquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[id]; busy {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *Guard) Release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, id)
}

// InFlight lists the ids currently held, sorted.
func (g *Guard) InFlight() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.inFlight))
	for id := range g.inFlight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
