// Package observability provides logger construction and element path
// resolution statistics for query translation.
package observability

import (
	"sort"
	"sync"
	"time"
)

// TranslationStats tracks how often element paths are resolved, and to
// which storage keys, while translating selection and order-by strings.
type TranslationStats struct {
	mu         sync.RWMutex
	resolved   map[string]*PathStats
	unresolved map[string]*PathStats
	window     time.Duration
}

// PathStats holds statistics for one element path token.
type PathStats struct {
	Path      string
	Frequency int64
	LastSeen  time.Time
	Keys      map[string]int // storage key → count
}

// NewTranslationStats creates a tracker.
// window: time duration for pruning old entries (e.g., 1 hour)
func NewTranslationStats(window time.Duration) *TranslationStats {
	return &TranslationStats{
		resolved:   make(map[string]*PathStats),
		unresolved: make(map[string]*PathStats),
		window:     window,
	}
}

// RecordResolved records a path token that resolved to key.
// This method is O(1) and thread-safe.
func (s *TranslationStats) RecordResolved(path, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := entry(s.resolved, path)
	st.Frequency++
	st.LastSeen = time.Now()
	st.Keys[key]++
}

// RecordUnresolved records a path token that matched no schema node.
func (s *TranslationStats) RecordUnresolved(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := entry(s.unresolved, path)
	st.Frequency++
	st.LastSeen = time.Now()
}

// TopResolved returns the n most frequently resolved paths, most frequent first.
func (s *TranslationStats) TopResolved(n int) []PathStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return top(s.resolved, n)
}

// TopUnresolved returns the n most frequent unresolved paths.
func (s *TranslationStats) TopUnresolved(n int) []PathStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return top(s.unresolved, n)
}

// Prune removes entries where time.Since(LastSeen) > window.
func (s *TranslationStats) Prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().Add(-s.window)
	for _, m := range []map[string]*PathStats{s.resolved, s.unresolved} {
		for path, st := range m {
			if st.LastSeen.Before(threshold) {
				delete(m, path)
			}
		}
	}
}

func entry(m map[string]*PathStats, path string) *PathStats {
	st, ok := m[path]
	if !ok {
		st = &PathStats{Path: path, Keys: make(map[string]int)}
		m[path] = st
	}
	return st
}

// top returns deep copies so callers cannot modify the tracked stats.
func top(m map[string]*PathStats, n int) []PathStats {
	if n <= 0 || len(m) == 0 {
		return []PathStats{}
	}
	out := make([]PathStats, 0, len(m))
	for _, st := range m {
		cp := PathStats{
			Path:      st.Path,
			Frequency: st.Frequency,
			LastSeen:  st.LastSeen,
			Keys:      make(map[string]int, len(st.Keys)),
		}
		for k, c := range st.Keys {
			cp.Keys[k] = c
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Path < out[j].Path
	})
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}
