package ledgercache

import (
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/port"
)

// Config controls caching. Enabled=false turns every Get into a miss and
// every Set into a no-op.
type Config struct {
	Enabled  bool
	StaleTTL time.Duration
}

type entry[T any] struct {
	fingerprint Fingerprint
	value       T
}

// Manager mediates cache reads and writes for one payload type.
type Manager[T any] struct {
	store     port.KeyValueStore
	namespace string
	cfg       Config
}

// NewManager creates a manager writing under "ledger:<namespace>:" keys.
func NewManager[T any](store port.KeyValueStore, namespace string, cfg Config) *Manager[T] {
	return &Manager[T]{store: store, namespace: namespace, cfg: cfg}
}

// Enabled reports whether the manager reads and writes the store.
func (m *Manager[T]) Enabled() bool {
	return m.cfg.Enabled && m.store != nil
}

func (m *Manager[T]) valueKey(key string) string   { return "ledger:" + m.namespace + ":" + key }
func (m *Manager[T]) pointerKey(key string) string { return m.valueKey(key) + ":hash" }

// Get returns the payload cached for key if the journal behind it still
// hashes to fp. The boolean is false on any miss: caching disabled, no
// pointer, pointer moved to another fingerprint, or payload expired.
func (m *Manager[T]) Get(fp Fingerprint, key string) (T, bool) {
	var zero T
	if !m.Enabled() {
		return zero, false
	}

	ptr, ok := m.store.Get(m.pointerKey(key))
	if !ok {
		return zero, false
	}
	if cur, _ := ptr.(Fingerprint); cur != fp {
		return zero, false
	}

	raw, ok := m.store.Get(m.valueKey(key))
	if !ok {
		return zero, false
	}
	e, ok := raw.(entry[T])
	// Concurrent writers may interleave pointer and payload writes.
	if !ok || e.fingerprint != fp {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the staleness TTL, and moves the key's
// pointer to fp without a TTL. It returns false when caching is disabled.
func (m *Manager[T]) Set(fp Fingerprint, key string, value T) bool {
	if !m.Enabled() {
		return false
	}
	m.store.SetWithTTL(m.valueKey(key), entry[T]{fingerprint: fp, value: value}, m.cfg.StaleTTL)
	m.store.SetWithTTL(m.pointerKey(key), fp, 0)
	return true
}

// Invalidate drops both records for key.
func (m *Manager[T]) Invalidate(key string) {
	if m.store == nil {
		return
	}
	m.store.Delete(m.valueKey(key))
	m.store.Delete(m.pointerKey(key))
}
