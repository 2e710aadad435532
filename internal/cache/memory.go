package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	// Values at or above this size are stored zstd compressed.
	compressThreshold = 4 << 10

	defaultTTL      = 5 * time.Minute
	janitorInterval = time.Minute
)

type entry struct {
	data       []byte
	compressed bool
	expiresAt  time.Time
}

// Memory is an in-process Store with TTL expiry. Expired entries are
// dropped lazily on read and swept by a background janitor.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	enc *zstd.Encoder
	dec *zstd.Decoder

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory returns a running Memory store. A non-positive ttl selects
// the package default. Call Close to stop the expiry janitor.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)

	m := &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		enc:     enc,
		dec:     dec,
		stop:    make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the expiry janitor. The store stays usable afterwards;
// expiry then happens only on read.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Put stores a copy of value under key for ttl.
func (m *Memory) Put(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}

	var data []byte
	compressed := false
	if len(value) >= compressThreshold {
		data = m.enc.EncodeAll(value, nil)
		compressed = true
	} else {
		data = append([]byte(nil), value...)
	}

	m.mu.Lock()
	m.entries[key] = entry{
		data:       data,
		compressed: compressed,
		expiresAt:  time.Now().Add(ttl),
	}
	m.mu.Unlock()
}

// Get returns the value stored under key. The returned slice is the
// caller's to keep.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.misses.Add(1)
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.evict(key)
		m.misses.Add(1)
		return nil, false
	}

	if e.compressed {
		plain, err := m.dec.DecodeAll(e.data, nil)
		if err != nil {
			m.evict(key)
			m.misses.Add(1)
			return nil, false
		}
		m.hits.Add(1)
		return plain, true
	}

	m.hits.Add(1)
	return append([]byte(nil), e.data...), true
}

// Stats returns a snapshot of store activity.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	entries := len(m.entries)
	compressed := 0
	for _, e := range m.entries {
		if e.compressed {
			compressed++
		}
	}
	m.mu.RUnlock()

	return Stats{
		Entries:    entries,
		Compressed: compressed,
		Hits:       m.hits.Load(),
		Misses:     m.misses.Load(),
		Evictions:  m.evictions.Load(),
	}
}

// Flush drops every entry.
func (m *Memory) Flush() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

func (m *Memory) evict(key string) {
	m.mu.Lock()
	// Recheck under the write lock; a Put may have refreshed the key.
	if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
		delete(m.entries, key)
		m.evictions.Add(1)
	}
	m.mu.Unlock()
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
			m.evictions.Add(1)
		}
	}
	m.mu.Unlock()
}
