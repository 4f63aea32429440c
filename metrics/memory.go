package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/restfetch/restfetch/types"
)

// MemoryMetrics is the default backend: plain in-process counters and
// histograms, snapshotable for console output.
type MemoryMetrics struct {
	logger     types.Logger
	mu         sync.RWMutex
	counters   map[string]*memoryCounter
	histograms map[string]*memoryHistogram
}

func NewMemoryMetrics(logger types.Logger) *MemoryMetrics {
	return &MemoryMetrics{
		logger:     logger,
		counters:   make(map[string]*memoryCounter),
		histograms: make(map[string]*memoryHistogram),
	}
}

func (m *MemoryMetrics) Counter(name string, labels map[string]string) types.Counter {
	key := metricKey(name, labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[key]; exists {
		return counter
	}

	counter := &memoryCounter{name: name, labels: labels}
	m.counters[key] = counter
	return counter
}

func (m *MemoryMetrics) Histogram(name string, buckets []float64, labels map[string]string) types.Histogram {
	key := metricKey(name, labels)

	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[key]; exists {
		return histogram
	}

	histogram := &memoryHistogram{name: name, labels: labels}
	m.histograms[key] = histogram
	return histogram
}

func (m *MemoryMetrics) Snapshot() ([]types.MetricValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	values := make([]types.MetricValue, 0, len(m.counters)+len(m.histograms))

	for _, counter := range m.counters {
		counter.mu.Lock()
		value := counter.value
		counter.mu.Unlock()

		values = append(values, types.MetricValue{
			Name:      counter.name,
			Type:      "counter",
			Value:     value,
			Labels:    counter.labels,
			Timestamp: now,
		})
	}

	for _, histogram := range m.histograms {
		histogram.mu.Lock()
		count, sum := histogram.count, histogram.sum
		histogram.mu.Unlock()

		values = append(values, types.MetricValue{
			Name:      histogram.name + "_count",
			Type:      "histogram",
			Value:     float64(count),
			Labels:    histogram.labels,
			Timestamp: now,
		})
		values = append(values, types.MetricValue{
			Name:      histogram.name + "_sum",
			Type:      "histogram",
			Value:     sum,
			Labels:    histogram.labels,
			Timestamp: now,
		})
	}

	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })

	return values, nil
}

type memoryCounter struct {
	name   string
	labels map[string]string
	mu     sync.Mutex
	value  float64
}

func (c *memoryCounter) Inc() { c.Add(1) }

func (c *memoryCounter) Add(value float64) {
	c.mu.Lock()
	c.value += value
	c.mu.Unlock()
}

func (c *memoryCounter) Get() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type memoryHistogram struct {
	name   string
	labels map[string]string
	mu     sync.Mutex
	count  uint64
	sum    float64
}

func (h *memoryHistogram) Observe(value float64) {
	h.mu.Lock()
	h.count++
	h.sum += value
	h.mu.Unlock()
}

func (h *memoryHistogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}

	return b.String()
}
