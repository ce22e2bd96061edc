package api

import (
	"sync"

	"github.com/toozej/sn2ssg/internal/models"
)

// Run lifecycle outcomes reported in StatusResponse.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Tracker records cycle outcomes for the status endpoints. It is safe for
// concurrent use; the cycle loop writes, HTTP handlers read.
type Tracker struct {
	mu      sync.Mutex
	running bool
	ready   bool
	cycles  int
	lastRun *RunStatus
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordStart marks a cycle as in flight.
func (t *Tracker) RecordStart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

// RecordSuccess stores a finished cycle's report. The first success flips
// the readiness probe.
func (t *Tracker) RecordSuccess(report models.RunReport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.ready = true
	t.cycles++
	t.lastRun = &RunStatus{Report: report, Outcome: OutcomeSucceeded}
}

// RecordFailure stores a failed cycle. Readiness is left as is: a daemon
// that was serving good cycles stays ready until it exits.
func (t *Tracker) RecordFailure(report models.RunReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.cycles++
	t.lastRun = &RunStatus{Report: report, Outcome: OutcomeFailed, Error: err.Error()}
}

// Ready reports whether at least one cycle has completed successfully.
func (t *Tracker) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Status snapshots the tracker for the status handler.
func (t *Tracker) Status() StatusResponse {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := "idle"
	if t.running {
		state = "running"
	}
	resp := StatusResponse{
		State:  state,
		Ready:  t.ready,
		Cycles: t.cycles,
	}
	if t.lastRun != nil {
		run := *t.lastRun
		resp.LastRun = &run
	}
	return resp
}
