package metrics

import (
	"sync"
	"time"

	"github.com/restfetch/restfetch/types"
)

var customMetricsCreators = sync.Map{}

func RegisterMetricsManager(name string, creator types.MetricsManagerCreator) {
	customMetricsCreators.Store(name, creator)
}

// NewManager selects the metrics backend by config. Disabled metrics yield
// a no-op manager so instrumentation call sites never branch.
func NewManager(logger types.Logger, config *types.MetricsConfig) (types.MetricsManager, error) {
	if config == nil || !config.Enabled {
		return NewNopMetrics(), nil
	}

	switch config.Type {
	case "memory":
		return NewMemoryMetrics(logger), nil
	case "prometheus":
		return NewPrometheusMetrics(logger)
	default:
		if creator, exists := customMetricsCreators.Load(config.Type); exists {
			return creator.(types.MetricsManagerCreator)(config)
		}
		return nil, types.Errorf(types.ErrMetricsTypeUnknown, "type: %s", config.Type)
	}
}

type nopMetrics struct{}

type nopCounter struct{}

type nopHistogram struct{}

func NewNopMetrics() types.MetricsManager { return nopMetrics{} }

func (nopMetrics) Counter(string, map[string]string) types.Counter { return nopCounter{} }

func (nopMetrics) Histogram(string, []float64, map[string]string) types.Histogram {
	return nopHistogram{}
}

func (nopMetrics) Snapshot() ([]types.MetricValue, error) { return nil, nil }

func (nopCounter) Inc()         {}
func (nopCounter) Add(float64)  {}
func (nopCounter) Get() float64 { return 0 }

func (nopHistogram) Observe(float64)           {}
func (nopHistogram) ObserveDuration(time.Time) {}
