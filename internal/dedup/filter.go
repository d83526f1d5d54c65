package dedup

import (
	"net/url"
	"strings"
	"sync"
)

// Filter remembers subscription references so each is analyzed once per run.
type Filter struct {
	seen map[string]struct{}
	mu   sync.Mutex
}

func New() *Filter {
	return &Filter{
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether ref was already offered, recording it otherwise.
// URLs are compared with a lower-case scheme and host and no fragment.
func (f *Filter) Seen(ref string) bool {
	key := Key(ref)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.seen[key]; exists {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

func Key(ref string) string {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
