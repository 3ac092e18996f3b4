package tools

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultTrackerSize = 256
	defaultTrackerTTL  = 5 * time.Minute
)

// IdempotencyKey derives the deterministic key for one tool call:
// name + ":" + arguments serialized with keys sorted at every level.
func IdempotencyKey(name string, args map[string]any) string {
	return name + ":" + normalizeArgs(args)
}

// normalizeArgs serializes a map into a deterministic JSON string by sorting
// keys at every level.
func normalizeArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(sortedMap(args))
	if err != nil {
		return "{}"
	}
	return string(data)
}

// sortedMap converts nested maps to a form json.Marshal serializes with
// sorted keys (encoding/json sorts map keys, so only nested map values need
// normalizing to the same concrete type).
func sortedMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = sortedMap(nested)
		}
		out[k] = v
	}
	return out
}

// Tracker suppresses duplicate side-effecting tool calls. Keys live in a
// bounded LRU with a TTL; a duplicate inside the TTL is reported so the
// executor can turn it into a no-op success instead of re-executing.
type Tracker struct {
	mu    sync.Mutex
	cache *lru.Cache[string, time.Time]
	ttl   time.Duration
	now   func() time.Time
}

// NewTracker constructs a tracker; zero values fall back to defaults.
func NewTracker(size int, ttl time.Duration) *Tracker {
	if size <= 0 {
		size = defaultTrackerSize
	}
	if ttl <= 0 {
		ttl = defaultTrackerTTL
	}
	cache, err := lru.New[string, time.Time](size)
	if err != nil {
		// lru.New only errors on non-positive size, guarded above.
		panic(err)
	}
	return &Tracker{cache: cache, ttl: ttl, now: time.Now}
}

// Seen reports whether key was recorded within the TTL and records it when
// not. The check and the record are atomic.
func (t *Tracker) Seen(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if storedAt, ok := t.cache.Get(key); ok {
		if t.now().Sub(storedAt) < t.ttl {
			return true
		}
		t.cache.Remove(key)
	}
	t.cache.Add(key, t.now())
	return false
}

// Forget removes a key, allowing the call to run again (used when a granted
// confirmation re-runs a previously skipped call).
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Remove(key)
}
