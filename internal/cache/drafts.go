package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DraftStore keeps unsaved edits, one JSON file per key, until they are saved
// to the server or cleared. Drafts survive restarts.
type DraftStore struct {
	dir string
}

// Draft describes one stored draft.
type Draft struct {
	Key      string
	Modified time.Time
	Size     int64
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func NewDraftStore(dir string) (*DraftStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &DraftStore{dir: dir}, nil
}

func (s *DraftStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid draft key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Save stores v under key, replacing any previous draft.
func (s *DraftStore) Save(key string, v any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", key, err)
	}
	// Write then rename so a crash never leaves a half written draft.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write draft %s: %w", key, err)
	}
	return os.Rename(tmp, path)
}

// Load decodes the draft stored under key into v. It reports false when
// there is no such draft.
func (s *DraftStore) Load(key string, v any) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read draft %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return true, nil
}

// Has reports whether a draft exists under key.
func (s *DraftStore) Has(key string) bool {
	path, err := s.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a draft. Deleting a missing draft is not an error.
func (s *DraftStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	return nil
}

// List returns every draft whose key starts with prefix, most recently
// modified first.
func (s *DraftStore) List(prefix string) ([]Draft, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var drafts []Draft
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		drafts = append(drafts, Draft{Key: key, Modified: info.ModTime(), Size: info.Size()})
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].Modified.After(drafts[j].Modified)
	})
	return drafts, nil
}

// DeleteAll removes every draft whose key starts with prefix and returns how
// many were removed.
func (s *DraftStore) DeleteAll(prefix string) (int, error) {
	drafts, err := s.List(prefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range drafts {
		if err := s.Delete(d.Key); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
