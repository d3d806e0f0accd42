package metrics

import "time"

// Phase names a timed step of template creation.
type Phase string

const (
	PhaseDocumentParse   Phase = "document_parse"
	PhaseScriptTranslate Phase = "script_translate"
	PhaseScriptCompile   Phase = "script_compile"
)

// CacheResult labels compiled template cache lookups.
type CacheResult string

const (
	CacheHit  CacheResult = "hit"
	CacheMiss CacheResult = "miss"
)

// Recorder defines observability hooks for template creation and site builds.
// Implementations may forward to Prometheus or similar backends.
type Recorder interface {
	ObservePhaseDuration(phase Phase, d time.Duration)
	IncTemplate(kind string)
	IncFailure(phase string)
	IncCacheLookup(result CacheResult)
	IncCacheInvalidation()
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|partial|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePhaseDuration(Phase, time.Duration) {}
func (NoopRecorder) IncTemplate(string)                        {}
func (NoopRecorder) IncFailure(string)                         {}
func (NoopRecorder) IncCacheLookup(CacheResult)                {}
func (NoopRecorder) IncCacheInvalidation()                     {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(string)                    {}
