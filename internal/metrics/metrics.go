package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
	"github.com/wassilaaloui/peoplestore/internal/config"
	"github.com/wassilaaloui/peoplestore/internal/logging"
)

// MetricsConfig holds configuration for the collector
type MetricsConfig struct {
	Namespace string
	Buckets   []float64
}

// DefaultMetricsConfig returns the collector configuration for cfg, or the
// defaults when cfg is nil.
func DefaultMetricsConfig(cfg *config.RawConfig) MetricsConfig {
	mc := MetricsConfig{
		Namespace: "peoplestore",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}
	if cfg != nil && cfg.Metrics.Namespace != "" {
		mc.Namespace = cfg.Metrics.Namespace
	}
	return mc
}

// Collector records store operation metrics on a private registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	logger    logging.Logger
	registry  *prometheus.Registry
	duration  *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	documents *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics
func NewCollector(logger logging.Logger, cfg MetricsConfig) *Collector {
	c := &Collector{
		logger:   logger.WithField("component", "metrics"),
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of document store operations.",
			Buckets:   cfg.Buckets,
		}, []string{"operation", "collection"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Failed document store operations by error kind.",
		}, []string{"operation", "collection", "kind"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "store",
			Name:      "documents_total",
			Help:      "Documents written, read or removed by document store operations.",
		}, []string{"operation", "collection"}),
	}
	c.registry.MustRegister(c.duration, c.errors, c.documents)
	return c
}

// Observe records the duration of an operation that started at start, and
// counts it as failed when err is non-nil.
func (c *Collector) Observe(operation, collection string, start time.Time, err error) {
	if c == nil {
		return
	}
	c.duration.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	if err != nil {
		c.errors.WithLabelValues(operation, collection, apperrors.Kind(err)).Inc()
	}
}

// AddDocuments counts n documents affected by an operation
func (c *Collector) AddDocuments(operation, collection string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.documents.WithLabelValues(operation, collection).Add(float64(n))
}

// Registry exposes the registry, e.g. for a scrape handler or tests
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Snapshot flattens the current counter values and histogram sample counts
// into name{label="value",...} keys.
func (c *Collector) Snapshot() (map[string]float64, error) {
	if c == nil {
		return map[string]float64{}, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName() + formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[key] = m.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// Dump logs every snapshot entry at info, in name order
func (c *Collector) Dump() {
	if c == nil {
		return
	}
	snapshot, err := c.Snapshot()
	if err != nil {
		c.logger.Errorw("Failed to collect metrics", "error", err)
		return
	}
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.logger.Infow("Metric", "name", k, "value", snapshot[k])
	}
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
