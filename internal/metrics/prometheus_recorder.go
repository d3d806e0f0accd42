package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	phaseDuration *prom.HistogramVec
	templates     *prom.CounterVec
	failures      *prom.CounterVec
	cacheLookups  *prom.CounterVec
	invalidations prom.Counter
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.phaseDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "grain",
			Name:      "template_phase_duration_seconds",
			Help:      "Duration of template creation phases",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"phase"})
		pr.templates = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grain",
			Name:      "templates_created_total",
			Help:      "Resource templates created by kind",
		}, []string{"kind"})
		pr.failures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grain",
			Name:      "template_failures_total",
			Help:      "Template creation or render failures by phase",
		}, []string{"phase"})
		pr.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grain",
			Name:      "compiled_template_cache_lookups_total",
			Help:      "Compiled template cache lookups by result",
		}, []string{"result"})
		pr.invalidations = prom.NewCounter(prom.CounterOpts{
			Namespace: "grain",
			Name:      "compiled_template_cache_invalidations_total",
			Help:      "Whole-cache invalidations triggered by site changes",
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "grain",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "grain",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.phaseDuration, pr.templates, pr.failures, pr.cacheLookups, pr.invalidations, pr.buildDuration, pr.buildOutcome)
	})
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	if p == nil {
		return nil
	}
	return p.reg
}

// WriteTextfile dumps all registered metrics in the text exposition format,
// suitable for a node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func (p *PrometheusRecorder) ObservePhaseDuration(phase Phase, d time.Duration) {
	if p == nil || p.phaseDuration == nil {
		return
	}
	p.phaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTemplate(kind string) {
	if p == nil || p.templates == nil {
		return
	}
	p.templates.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncFailure(phase string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(phase).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(result CacheResult) {
	if p == nil || p.cacheLookups == nil {
		return
	}
	p.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCacheInvalidation() {
	if p == nil || p.invalidations == nil {
		return
	}
	p.invalidations.Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}
