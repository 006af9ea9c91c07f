// Package prometheusmetrics adapts a Prometheus registry to the client
// runtime's MetricsRecorder contract. Counter and histogram vectors are
// created lazily per metric name with a fixed label set so invocation tags
// map onto Prometheus labels.
package prometheusmetrics

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-client-runtime/core"
)

var metricLabels = []string{"operation", "status", "service", "failure_kind", "hook"}

// Recorder implements core.MetricsRecorder on top of a Prometheus
// registerer.
type Recorder struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Recorder{
		registerer: registerer,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if value <= 0 {
		return
	}
	counter := r.counter(name)
	if counter == nil {
		return
	}
	counter.With(labelValues(tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	histogram := r.histogram(name)
	if histogram == nil {
		return
	}
	histogram.With(labelValues(tags)).Observe(value)
}

func (r *Recorder) counter(name string) *prometheus.CounterVec {
	sanitized := sanitizeMetricName(name)
	if sanitized == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if counter, ok := r.counters[sanitized]; ok {
		return counter
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: sanitized,
		Help: "Client runtime counter " + sanitized,
	}, metricLabels)
	if err := r.registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				counter = existing
			}
		} else {
			return nil
		}
	}
	r.counters[sanitized] = counter
	return counter
}

func (r *Recorder) histogram(name string) *prometheus.HistogramVec {
	sanitized := sanitizeMetricName(name)
	if sanitized == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if histogram, ok := r.histograms[sanitized]; ok {
		return histogram
	}
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    sanitized,
		Help:    "Client runtime histogram " + sanitized,
		Buckets: prometheus.DefBuckets,
	}, metricLabels)
	if err := r.registerer.Register(histogram); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				histogram = existing
			}
		} else {
			return nil
		}
	}
	r.histograms[sanitized] = histogram
	return histogram
}

func labelValues(tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(metricLabels))
	for _, label := range metricLabels {
		labels[label] = tags[label]
	}
	return labels
}

func sanitizeMetricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var builder strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			builder.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
