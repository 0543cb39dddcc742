package screens

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/svargasl/finpanel/internal/listview"
)

// PagerSet keeps one pager per session and resource, so page position and
// page size survive between list requests the way they would in a mounted
// screen.
type PagerSet struct {
	mu          sync.Mutex
	pagers      map[string]*listview.Pager
	defaultSize int
}

func NewPagerSet(defaultSize int) *PagerSet {
	return &PagerSet{
		pagers:      make(map[string]*listview.Pager),
		defaultSize: defaultSize,
	}
}

func (ps *PagerSet) get(sessionID, resource string) *listview.Pager {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key := sessionID + ":" + resource
	p, ok := ps.pagers[key]
	if !ok {
		p = listview.NewPager(ps.defaultSize)
		ps.pagers[key] = p
	}
	return p
}

// drop clears a session's pagers on logout.
func (ps *PagerSet) drop(sessionID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	prefix := sessionID + ":"
	for key := range ps.pagers {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(ps.pagers, key)
		}
	}
}

// applyPageParams feeds the request's page controls into the pager.
// Changing the page size resets to page one; out-of-range pages clamp.
func applyPageParams(p *listview.Pager, r *http.Request) {
	q := r.URL.Query()
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.ChangeItemsPerPage(n)
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.GoToPage(n)
		}
	}
}
