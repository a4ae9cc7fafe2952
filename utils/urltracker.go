package utils

import (
	"strings"
	"sync"
)

// URLTracker tracks visited listing URLs to avoid fetching the same page
// twice in one run. URLs are compared without their query string or
// fragment: search results link the same listing under varying check-in
// parameters.
type URLTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewURLTracker creates a new tracker
func NewURLTracker() *URLTracker {
	return &URLTracker{seen: make(map[string]struct{})}
}

// Add returns true if the URL is new (not seen before), false if duplicate
func (t *URLTracker) Add(url string) bool {
	key := canonical(url)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.seen[key]; exists {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Count returns the number of tracked URLs
func (t *URLTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func canonical(url string) string {
	if i := strings.IndexAny(url, "?#"); i != -1 {
		url = url[:i]
	}
	return strings.TrimSuffix(url, "/")
}
