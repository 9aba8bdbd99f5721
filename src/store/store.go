package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"cryptodash/src/model"
)

// DefaultReloadDebounce is the quiet period after the last observed change
// before the cache is rebuilt, so a burst of file writes coalesces into a
// single reload.
const DefaultReloadDebounce = 1 * time.Second

// PositionStore caches asset positions read from a directory of
// <SYMBOL>.json files. Reload builds the full replacement set before
// swapping it in: readers see either the previous cache or the new one,
// never a half-updated mix. Concurrent reloads are not de-duplicated; the
// last one to finish wins.
type PositionStore struct {
	path     string
	debounce time.Duration

	mu           sync.RWMutex
	cache        map[string]model.Position
	lastModified map[string]int64

	timerMu sync.Mutex
	timer   *time.Timer

	subMu sync.Mutex
	subs  []chan struct{}
}

// Status describes the current cache contents.
type Status struct {
	CachedAssets []string         `json:"cachedAssets"`
	LastModified map[string]int64 `json:"lastModified"`
	CacheSize    int              `json:"cacheSize"`
}

func NewPositionStore(path string, debounce time.Duration) *PositionStore {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	return &PositionStore{
		path:         path,
		debounce:     debounce,
		cache:        make(map[string]model.Position),
		lastModified: make(map[string]int64),
	}
}

// Path returns the watched positions directory.
func (s *PositionStore) Path() string {
	return s.path
}

// Reload reads every <SYMBOL>.json file under the store path and replaces
// the cache wholesale. A file that cannot be read, parsed or validated is
// logged and skipped; one bad record never blanks the rest of the cache.
// Files without any transactions are not admitted. The returned error is
// non-nil only when the directory itself cannot be listed.
func (s *PositionStore) Reload() error {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return fmt.Errorf("read positions dir %s: %w", s.path, err)
	}

	newCache := make(map[string]model.Position)
	newModified := make(map[string]int64)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSuffix(entry.Name(), ".json"))

		raw, err := os.ReadFile(filepath.Join(s.path, entry.Name()))
		if err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Error("Error reading position file")
			continue
		}
		var pos model.Position
		if err := json.Unmarshal(raw, &pos); err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Error("Error parsing position file")
			continue
		}
		if !pos.HasTransactions() {
			// no trading history, not part of the active universe
			continue
		}
		if err := pos.Validate(); err != nil {
			logger.WithError(err).WithField("file", entry.Name()).Error("Skipping position with malformed fields")
			continue
		}
		if info, err := entry.Info(); err == nil {
			newModified[symbol] = info.ModTime().UnixMilli()
		}
		newCache[symbol] = pos
	}

	s.mu.Lock()
	s.cache = newCache
	s.lastModified = newModified
	s.mu.Unlock()

	logger.Infof("Asset cache updated with %d assets", len(newCache))
	s.notifySubscribers()
	return nil
}

// Get looks up one position; the symbol is matched case-insensitively.
func (s *PositionStore) Get(symbol string) (model.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.cache[strings.ToUpper(symbol)]
	return pos, ok
}

// All returns a copy of the cached positions keyed by symbol.
func (s *PositionStore) All() map[string]model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Position, len(s.cache))
	for symbol, pos := range s.cache {
		out[symbol] = pos
	}
	return out
}

// Status reports the cached symbols (sorted) and their file mtimes.
func (s *PositionStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	symbols := make([]string, 0, len(s.cache))
	for symbol := range s.cache {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	modified := make(map[string]int64, len(s.lastModified))
	for symbol, ts := range s.lastModified {
		modified[symbol] = ts
	}
	return Status{
		CachedAssets: symbols,
		LastModified: modified,
		CacheSize:    len(symbols),
	}
}

// NotifyChange schedules a debounced reload. Every call resets the quiet
// period timer, so N notifications inside one window produce one reload.
func (s *PositionStore) NotifyChange() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Reload(); err != nil {
			logger.WithError(err).Error("Debounced reload failed")
		}
	})
}

// Subscribe returns a channel signalled after each completed reload, plus a
// cancel func. The channel has one slot; slow consumers miss intermediate
// reloads but always see the latest.
func (s *PositionStore) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

func (s *PositionStore) notifySubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
