package metrics

import (
	"sync/atomic"
	"time"
)

// PhaseTotals is a point-in-time copy of one phase's accumulated counters.
type PhaseTotals struct {
	Count int64
	Total time.Duration
}

// PerfCounters accumulates elapsed time per phase. All methods are safe for
// concurrent use; values only grow.
type PerfCounters struct {
	documentParse   phaseCounter
	scriptTranslate phaseCounter
	scriptCompile   phaseCounter
}

type phaseCounter struct {
	count atomic.Int64
	nanos atomic.Int64
}

func (c *phaseCounter) add(d time.Duration) {
	c.count.Add(1)
	c.nanos.Add(int64(d))
}

func (c *phaseCounter) totals() PhaseTotals {
	return PhaseTotals{Count: c.count.Load(), Total: time.Duration(c.nanos.Load())}
}

var global PerfCounters

// Global returns the process-wide counters.
func Global() *PerfCounters {
	return &global
}

// Add records one observation of phase taking d. Unknown phases are ignored.
func (p *PerfCounters) Add(phase Phase, d time.Duration) {
	if c := p.counter(phase); c != nil {
		c.add(d)
	}
}

// Totals returns the accumulated totals for a phase.
func (p *PerfCounters) Totals(phase Phase) PhaseTotals {
	if c := p.counter(phase); c != nil {
		return c.totals()
	}
	return PhaseTotals{}
}

// Snapshot returns the totals of every phase.
func (p *PerfCounters) Snapshot() map[Phase]PhaseTotals {
	return map[Phase]PhaseTotals{
		PhaseDocumentParse:   p.documentParse.totals(),
		PhaseScriptTranslate: p.scriptTranslate.totals(),
		PhaseScriptCompile:   p.scriptCompile.totals(),
	}
}

func (p *PerfCounters) counter(phase Phase) *phaseCounter {
	switch phase {
	case PhaseDocumentParse:
		return &p.documentParse
	case PhaseScriptTranslate:
		return &p.scriptTranslate
	case PhaseScriptCompile:
		return &p.scriptCompile
	default:
		return nil
	}
}
