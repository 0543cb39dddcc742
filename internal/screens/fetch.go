package screens

import "sync"

// fetchGuard orders concurrent fetches for the same cache key. Each fetch
// takes a sequence number before going to the network; only the response
// holding the latest number may write the cache, so a slow older response
// can never clobber a newer one.
type fetchGuard struct {
	mu  sync.Mutex
	seq map[string]uint64
}

func newFetchGuard() *fetchGuard {
	return &fetchGuard{seq: make(map[string]uint64)}
}

func (g *fetchGuard) begin(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq[key]++
	return g.seq[key]
}

func (g *fetchGuard) isCurrent(key string, n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq[key] == n
}
