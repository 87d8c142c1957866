package postfx

import "sync"

// SourceStore holds the user-editable compute shader body and a dirty
// flag. It is the only state in the effect shared across goroutines:
// any goroutine may write a new body at any time, while the render
// goroutine consumes pending updates once per frame.
//
// The lock is held only for constant-time copies, never across shader
// compilation or GPU submission, so neither side can block the other
// for more than a trivial critical section.
type SourceStore struct {
	mu    sync.Mutex
	body  string
	dirty bool
}

// SetBody replaces the pending shader body and marks it dirty.
// The last write before the next [SourceStore.TakeIfDirty] wins; earlier
// pending writes are discarded. SetBody never blocks on compilation.
func (s *SourceStore) SetBody(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = text
	s.dirty = true
}

// TakeIfDirty returns the pending body and clears the dirty flag in one
// atomic step. When nothing is pending it returns ("", false) without
// touching the stored body.
func (s *SourceStore) TakeIfDirty() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return "", false
	}
	s.dirty = false
	return s.body, true
}
