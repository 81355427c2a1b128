package navigation

import (
	"net/url"
	"sync"
)

var _ Navigator = (*History)(nil)

// History is an in-memory Navigator
type History struct {
	entries []string
	lock    sync.RWMutex
}

func NewHistory(start string) *History {
	if start == "" {
		start = "/"
	}
	return &History{entries: []string{start}}
}

func (h *History) Location() *url.URL {
	h.lock.RLock()
	defer h.lock.RUnlock()
	u, err := url.Parse(h.entries[len(h.entries)-1])
	if err != nil {
		return &url.URL{Path: "/"}
	}
	return u
}

func (h *History) Navigate(target string) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.entries = append(h.entries, target)
}

// Entries returns every visited location, oldest first
func (h *History) Entries() []string {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return append([]string(nil), h.entries...)
}

// Current returns the raw current location
func (h *History) Current() string {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.entries[len(h.entries)-1]
}
