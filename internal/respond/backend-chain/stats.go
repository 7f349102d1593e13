// internal/respond/backend-chain/stats.go
package backendchain

import (
	"math"
	"sync"
)

// Stats is the observation window served at /status/backends. Rates are
// rounded to three decimals.
type Stats struct {
	Requests     int64                   `json:"requests"`
	Served       int64                   `json:"served"`
	Exhaustions  int64                   `json:"exhaustions"`
	SuccessRate  float64                 `json:"successRate"`
	FallbackRate float64                 `json:"fallbackRate"`
	Backends     map[string]BackendStats `json:"backends"`
}

type BackendStats struct {
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
	Timeouts  int64 `json:"timeouts"`
}

type tally struct {
	mu          sync.Mutex
	requests    int64
	served      int64
	exhaustions int64
	backends    map[string]*BackendStats
}

func newTally() *tally {
	return &tally{backends: make(map[string]*BackendStats)}
}

func (t *tally) recordRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
}

func (t *tally) recordAttempt(backend, outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.backends[backend]
	if b == nil {
		b = &BackendStats{}
		t.backends[backend] = b
	}

	switch outcome {
	case OutcomeSuccess:
		b.Successes++
	case OutcomeTimeout:
		b.Timeouts++
	default:
		b.Failures++
	}
}

func (t *tally) recordServed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.served++
}

func (t *tally) recordExhaustion() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exhaustions++
}

func (t *tally) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	backends := make(map[string]BackendStats, len(t.backends))
	for id, b := range t.backends {
		backends[id] = *b
	}

	stats := Stats{
		Requests:    t.requests,
		Served:      t.served,
		Exhaustions: t.exhaustions,
		Backends:    backends,
	}
	if t.requests > 0 {
		stats.SuccessRate = round3(float64(t.served) / float64(t.requests))
		stats.FallbackRate = round3(float64(t.exhaustions) / float64(t.requests))
	}
	return stats
}

func (t *tally) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = 0
	t.served = 0
	t.exhaustions = 0
	t.backends = make(map[string]*BackendStats)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
