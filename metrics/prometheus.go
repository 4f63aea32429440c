package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/restfetch/restfetch/types"
)

const prometheusNamespace = "restfetch"

// PrometheusMetrics backs the MetricsManager with a dedicated prometheus
// registry. Snapshot gathers the registry so the CLI can print the same
// values an exporter would expose.
type PrometheusMetrics struct {
	logger     types.Logger
	registry   *prometheus.Registry
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusMetrics(logger types.Logger) (*PrometheusMetrics, error) {
	metrics := &PrometheusMetrics{
		logger:     logger,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	logger.Debug("prometheus metrics initialized",
		zap.String("namespace", prometheusNamespace))

	return metrics, nil
}

func (p *PrometheusMetrics) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusMetrics) Counter(name string, labels map[string]string) types.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, exists := p.counters[name]
	if !exists {
		vec = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: prometheusNamespace,
				Name:      name,
				Help:      fmt.Sprintf("Counter metric %s", name),
			},
			labelNames(labels),
		)
		p.registry.MustRegister(vec)
		p.counters[name] = vec
	}

	return &prometheusCounter{counter: vec.With(prometheus.Labels(labels))}
}

func (p *PrometheusMetrics) Histogram(name string, buckets []float64, labels map[string]string) types.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, exists := p.histograms[name]
	if !exists {
		vec = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: prometheusNamespace,
				Name:      name,
				Help:      fmt.Sprintf("Histogram metric %s", name),
				Buckets:   buckets,
			},
			labelNames(labels),
		)
		p.registry.MustRegister(vec)
		p.histograms[name] = vec
	}

	return &prometheusHistogram{observer: vec.With(prometheus.Labels(labels))}
}

func (p *PrometheusMetrics) Snapshot() ([]types.MetricValue, error) {
	families, err := p.registry.Gather()
	if err != nil {
		return nil, types.WrapError(err, "failed to gather metrics")
	}

	now := time.Now()
	var values []types.MetricValue

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}

			switch family.GetType() {
			case dto.MetricType_COUNTER:
				values = append(values, types.MetricValue{
					Name:      family.GetName(),
					Type:      "counter",
					Value:     metric.GetCounter().GetValue(),
					Labels:    labels,
					Timestamp: now,
				})
			case dto.MetricType_HISTOGRAM:
				values = append(values, types.MetricValue{
					Name:      family.GetName() + "_count",
					Type:      "histogram",
					Value:     float64(metric.GetHistogram().GetSampleCount()),
					Labels:    labels,
					Timestamp: now,
				})
				values = append(values, types.MetricValue{
					Name:      family.GetName() + "_sum",
					Type:      "histogram",
					Value:     metric.GetHistogram().GetSampleSum(),
					Labels:    labels,
					Timestamp: now,
				})
			}
		}
	}

	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })

	return values, nil
}

type prometheusCounter struct {
	counter prometheus.Counter
}

func (c *prometheusCounter) Inc() { c.counter.Inc() }

func (c *prometheusCounter) Add(value float64) { c.counter.Add(value) }

func (c *prometheusCounter) Get() float64 {
	var m dto.Metric
	if err := c.counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

type prometheusHistogram struct {
	observer prometheus.Observer
}

func (h *prometheusHistogram) Observe(value float64) { h.observer.Observe(value) }

func (h *prometheusHistogram) ObserveDuration(start time.Time) {
	h.observer.Observe(time.Since(start).Seconds())
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
