package store

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rileyhilliard/viewui/internal/prometheus"
)

// DefaultHistorySize is the default number of samples retained per key.
const DefaultHistorySize = 60

// trendWindow is how many recent samples a trend compares.
const trendWindow = 5

// trendThreshold is the relative change below which a trend is stable.
const trendThreshold = 0.01

// Key identifies one panel query's history.
type Key struct {
	PanelID int
	RefID   string
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%s", k.PanelID, k.RefID)
}

// Buffer is a fixed-size circular buffer of samples. Reads return samples
// oldest first. It is not safe for concurrent use; History guards it.
type Buffer struct {
	data  []prometheus.Sample
	head  int
	count int
	size  int
}

// NewBuffer creates a buffer holding up to size samples.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Buffer{
		data: make([]prometheus.Sample, size),
		size: size,
	}
}

// Push appends a sample, overwriting the oldest one when full.
func (b *Buffer) Push(value float64, ts time.Time) {
	b.data[b.head] = prometheus.Sample{Timestamp: ts, Value: value}
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Recent returns up to n of the newest samples, oldest first.
func (b *Buffer) Recent(n int) []prometheus.Sample {
	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return []prometheus.Sample{}
	}

	out := make([]prometheus.Sample, n)
	start := (b.head - n + b.size) % b.size
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%b.size]
	}
	return out
}

// All returns every retained sample, oldest first.
func (b *Buffer) All() []prometheus.Sample {
	return b.Recent(b.count)
}

// Values returns up to n of the newest values, oldest first.
func (b *Buffer) Values(n int) []float64 {
	samples := b.Recent(n)
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// Latest returns the newest sample. ok is false when the buffer is empty.
func (b *Buffer) Latest() (prometheus.Sample, bool) {
	if b.count == 0 {
		return prometheus.Sample{}, false
	}
	return b.data[(b.head-1+b.size)%b.size], true
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int { return b.count }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return b.size }

// Clear drops every sample.
func (b *Buffer) Clear() {
	b.head = 0
	b.count = 0
}

// History holds one Buffer per key, created on first write.
type History struct {
	mu      sync.RWMutex
	size    int
	buffers map[Key]*Buffer
}

// NewHistory creates a history whose buffers hold size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:    size,
		buffers: make(map[Key]*Buffer),
	}
}

// Push records a sample under key. Non-finite values are dropped so trends
// never see NaN; the return reports whether the sample was kept.
func (h *History) Push(key Key, value float64, ts time.Time) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.buffers[key]
	if !ok {
		buf = NewBuffer(h.size)
		h.buffers[key] = buf
	}
	buf.Push(value, ts)
	return true
}

// Samples returns a copy of key's samples, oldest first, or nil when key has
// no buffer.
func (h *History) Samples(key Key) []prometheus.Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.buffers[key]
	if !ok {
		return nil
	}
	return buf.All()
}

// Values returns up to n of key's newest values, oldest first.
func (h *History) Values(key Key, n int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.buffers[key]
	if !ok {
		return nil
	}
	return buf.Values(n)
}

// Latest returns key's newest sample.
func (h *History) Latest(key Key) (prometheus.Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.buffers[key]
	if !ok {
		return prometheus.Sample{}, false
	}
	return buf.Latest()
}

// Has reports whether key has a buffer.
func (h *History) Has(key Key) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.buffers[key]
	return ok
}

// Trend returns the short-term direction of key's history.
func (h *History) Trend(key Key) Trend {
	return ComputeTrend(h.Values(key, trendWindow))
}

// Keys returns every key with a buffer, ordered by panel then refId.
func (h *History) Keys() []Key {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]Key, 0, len(h.buffers))
	for k := range h.buffers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PanelID != keys[j].PanelID {
			return keys[i].PanelID < keys[j].PanelID
		}
		return keys[i].RefID < keys[j].RefID
	})
	return keys
}

// Clear removes key's buffer.
func (h *History) Clear(key Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.buffers, key)
}

// ClearAll removes every buffer.
func (h *History) ClearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffers = make(map[Key]*Buffer)
}

// Trend is a short-term direction.
type Trend int

const (
	TrendStable Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "stable"
	}
}

// ComputeTrend compares the oldest and newest of the last five values. A
// change within 1% of the oldest value is stable.
func ComputeTrend(values []float64) Trend {
	if len(values) > trendWindow {
		values = values[len(values)-trendWindow:]
	}
	if len(values) < 2 {
		return TrendStable
	}

	first, last := values[0], values[len(values)-1]
	if math.IsNaN(first) || math.IsNaN(last) {
		return TrendStable
	}
	change := last - first
	if math.Abs(change) <= math.Abs(first)*trendThreshold {
		return TrendStable
	}
	if change > 0 {
		return TrendUp
	}
	return TrendDown
}
