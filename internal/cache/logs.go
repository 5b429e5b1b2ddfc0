package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LogCache keeps downloaded logs of finished job executions on disk so the
// log view and search do not download them again.
type LogCache struct {
	dir     string
	maxSize int64         // max total cache size in bytes
	ttl     time.Duration // cache entry TTL
}

// CacheMeta stores metadata about a cached execution.
type CacheMeta struct {
	ExecutionID int64     `json:"execution_id"`
	JobID       int64     `json:"job_id"`
	JobType     string    `json:"job_type"`
	Status      string    `json:"status"`
	Node        string    `json:"node"`
	Ended       time.Time `json:"ended"`
	StoredAt    time.Time `json:"stored_at"`
}

// CacheEntry represents a single cached execution with computed fields.
type CacheEntry struct {
	CacheMeta
	Streams      []string
	LastAccessed time.Time
	Size         int64
	Path         string
}

func NewLogCache(dir string, maxSizeMB int, ttl time.Duration) (*LogCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log cache dir: %w", err)
	}
	return &LogCache{
		dir:     dir,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		ttl:     ttl,
	}, nil
}

func (lc *LogCache) exeDir(exeID int64) string {
	return filepath.Join(lc.dir, fmt.Sprintf("exe-%d", exeID))
}

func (lc *LogCache) streamPath(exeID int64, stream string) string {
	return filepath.Join(lc.exeDir(exeID), filepath.Base(stream)+".log")
}

// Has reports whether a fresh copy of the stream is cached.
func (lc *LogCache) Has(exeID int64, stream string) bool {
	info, err := os.Stat(lc.streamPath(exeID, stream))
	if err != nil {
		return false
	}
	return !info.IsDir() && time.Since(info.ModTime()) < lc.ttl
}

// Store writes one stream of an execution's log.
func (lc *LogCache) Store(exeID int64, stream, content string) error {
	if err := os.MkdirAll(lc.exeDir(exeID), 0o755); err != nil {
		return fmt.Errorf("create execution log dir: %w", err)
	}
	if err := os.WriteFile(lc.streamPath(exeID, stream), []byte(content), 0o644); err != nil {
		return fmt.Errorf("store execution %d %s log: %w", exeID, stream, err)
	}
	return nil
}

// Get reads a cached stream.
func (lc *LogCache) Get(exeID int64, stream string) (string, error) {
	data, err := os.ReadFile(lc.streamPath(exeID, stream))
	if err != nil {
		return "", fmt.Errorf("read cached log: %w", err)
	}
	return string(data), nil
}

// GetAll reads every cached stream of an execution, keyed by stream name.
func (lc *LogCache) GetAll(exeID int64) (map[string]string, error) {
	entries, err := os.ReadDir(lc.exeDir(exeID))
	if err != nil {
		return nil, fmt.Errorf("read execution dir: %w", err)
	}
	logs := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(lc.exeDir(exeID), name))
		if err != nil {
			continue
		}
		logs[strings.TrimSuffix(name, ".log")] = string(data)
	}
	return logs, nil
}

// Evict removes expired and oversized cache entries.
func (lc *LogCache) Evict() error {
	type cacheEntry struct {
		path    string
		modTime time.Time
		size    int64
	}

	var entries []cacheEntry
	var totalSize int64

	err := filepath.Walk(lc.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		entries = append(entries, cacheEntry{path: path, modTime: info.ModTime(), size: info.Size()})
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return err
	}

	now := time.Now()
	remaining := entries[:0]
	for _, e := range entries {
		if now.Sub(e.modTime) > lc.ttl {
			os.Remove(e.path)
			totalSize -= e.size
		} else {
			remaining = append(remaining, e)
		}
	}
	entries = remaining

	// Oldest first until under the cap
	if totalSize > lc.maxSize {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].modTime.Before(entries[j].modTime)
		})
		for _, e := range entries {
			if totalSize <= lc.maxSize {
				break
			}
			os.Remove(e.path)
			totalSize -= e.size
		}
	}
	return nil
}

// WriteMeta writes meta.json in the execution's directory.
func (lc *LogCache) WriteMeta(meta CacheMeta) error {
	dir := lc.exeDir(meta.ExecutionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if meta.StoredAt.IsZero() {
		meta.StoredAt = time.Now().UTC()
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0644)
}

// ReadMeta reads meta.json from a cache entry.
func (lc *LogCache) ReadMeta(exeID int64) (*CacheMeta, error) {
	data, err := os.ReadFile(filepath.Join(lc.exeDir(exeID), "meta.json"))
	if err != nil {
		return nil, err
	}
	var meta CacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListEntries scans the cache directory and returns all entries, newest
// first.
func (lc *LogCache) ListEntries() ([]CacheEntry, error) {
	entries, err := os.ReadDir(lc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var result []CacheEntry
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "exe-") {
			continue
		}
		exeID, err := strconv.ParseInt(strings.TrimPrefix(e.Name(), "exe-"), 10, 64)
		if err != nil {
			continue
		}

		dirPath := filepath.Join(lc.dir, e.Name())
		entry := CacheEntry{Path: dirPath}
		if meta, err := lc.ReadMeta(exeID); err == nil {
			entry.CacheMeta = *meta
		}
		entry.ExecutionID = exeID

		if files, err := os.ReadDir(dirPath); err == nil {
			for _, f := range files {
				if strings.HasSuffix(f.Name(), ".log") {
					entry.Streams = append(entry.Streams, strings.TrimSuffix(f.Name(), ".log"))
				}
			}
		}
		entry.Size = dirSize(dirPath)
		entry.LastAccessed = dirLastAccessed(dirPath)
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAccessed.After(result[j].LastAccessed)
	})
	return result, nil
}

// DeleteEntry removes a single cache entry.
func (lc *LogCache) DeleteEntry(exeID int64) error {
	return os.RemoveAll(lc.exeDir(exeID))
}

// DeleteAll removes all cache entries.
func (lc *LogCache) DeleteAll() error {
	entries, err := os.ReadDir(lc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			os.RemoveAll(filepath.Join(lc.dir, e.Name()))
		}
	}
	return nil
}

// TotalSize returns total cache size in bytes.
func (lc *LogCache) TotalSize() (int64, error) {
	var total int64
	err := filepath.Walk(lc.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	return total, nil
}

func dirSize(path string) int64 {
	var size int64
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func dirLastAccessed(path string) time.Time {
	var latest time.Time
	filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	return latest
}
