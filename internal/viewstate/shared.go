package viewstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SharedStore remembers the last parameters of each view so that re-entering
// a view without a query restores its filters. Only the active view writes to
// it. When a file path is set the state survives restarts.
type SharedStore struct {
	mu   sync.Mutex
	path string
	last map[string]Params
}

// NewSharedStore returns an in-memory store.
func NewSharedStore() *SharedStore {
	return &SharedStore{last: make(map[string]Params)}
}

// LoadSharedStore reads state persisted at path. A missing file yields an
// empty store bound to path.
func LoadSharedStore(path string) (*SharedStore, error) {
	s := NewSharedStore()
	s.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read view state: %w", err)
	}
	var raw map[string]map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse view state %s: %w", path, err)
	}
	for view, p := range raw {
		s.last[view] = Params(p).Clone()
	}
	return s, nil
}

// LastParams returns the remembered parameters of view.
func (s *SharedStore) LastParams(view string) (Params, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.last[view]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// SaveParams remembers p for view.
func (s *SharedStore) SaveParams(view string, p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[view] = p.Clone()
}

// Forget drops the remembered state of view.
func (s *SharedStore) Forget(view string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, view)
}

// Save writes the state to the bound file. It is a no-op for in-memory stores.
func (s *SharedStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	raw := make(map[string]map[string][]string, len(s.last))
	for view, p := range s.last {
		raw[view] = p
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create view state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write view state: %w", err)
	}
	return nil
}
