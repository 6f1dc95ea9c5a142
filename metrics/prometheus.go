package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sdweb"

// Collector is a Recorder backed by Prometheus collectors on a private
// registry, so several instances (tests, CLI) never collide.
type Collector struct {
	registry *prometheus.Registry

	generations *prometheus.CounterVec
	rejected    prometheus.Counter
	duration    prometheus.Histogram
	inProgress  prometheus.Gauge
	ready       prometheus.Gauge
}

// NewCollector creates a Collector. Go runtime and process collectors are
// registered alongside the generation metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Completed generations by result",
			},
			[]string{"result"}, // result: success|error
		),
		rejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_rejected_total",
				Help:      "Generate requests rejected because a generation was in progress",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Wall time of generate calls, warmup included",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s..512s
			},
		),
		inProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "generation_in_progress",
				Help:      "1 while a generation is running",
			},
		),
		ready: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_ready",
				Help:      "1 once the model pipeline is built",
			},
		),
	}

	// pre-create both series so they export as 0
	c.generations.WithLabelValues(ResultSuccess)
	c.generations.WithLabelValues(ResultError)

	c.registry.MustRegister(
		c.generations,
		c.rejected,
		c.duration,
		c.inProgress,
		c.ready,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) GenerationStarted() {
	c.inProgress.Set(1)
}

func (c *Collector) GenerationFinished(rec GenerationRecord) {
	c.generations.WithLabelValues(rec.Result()).Inc()
	c.duration.Observe(rec.Duration.Seconds())
	c.inProgress.Set(0)
}

func (c *Collector) GenerationRejected() {
	c.rejected.Inc()
}

func (c *Collector) SetPipelineReady(ready bool) {
	if ready {
		c.ready.Set(1)
		return
	}
	c.ready.Set(0)
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ Recorder = (*Collector)(nil)
