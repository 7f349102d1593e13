// internal/respond/backend-chain/chain.go
package backendchain

import (
	"context"
	"errors"
	"strings"
	"time"

	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/metrics"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

var (
	ErrAllBackendsExhausted = errors.New("ALL_BACKENDS_EXHAUSTED")

	errBlankCompletion = errors.New("blank completion")
)

// GenerateFunc produces text for a prompt under the attempt's context.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Entry is one backend in the chain. Construction order is attempt order.
type Entry struct {
	ID       string
	Timeout  time.Duration
	Generate GenerateFunc
}

// Attempt records one backend try. Attempts are the only side effect of
// a failed backend besides logs and metrics.
type Attempt struct {
	Backend   string `json:"backend"`
	Outcome   string `json:"outcome"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type Request struct {
	Prompt string `json:"prompt"`
}

type Result struct {
	Text     string    `json:"text"`
	Source   string    `json:"source"`
	Attempts []Attempt `json:"attempts"`
}

// Chain walks its backends strictly in order, one attempt each, until
// one produces usable text. Backends are never raced.
type Chain struct {
	entries []Entry
	logger  logger.Logger
	tally   *tally
}

func NewChain(entries []Entry, log logger.Logger) *Chain {
	return &Chain{
		entries: entries,
		logger:  log.WithFields(map[string]interface{}{"component": "backend-chain"}),
		tally:   newTally(),
	}
}

// Generate tries each backend once. The returned Result always carries
// the attempt records, including on exhaustion and cancellation.
//
// Caller cancellation aborts the chain and comes back as the context
// error; exhaustion comes back as ErrAllBackendsExhausted and the
// caller is expected to treat it as ordinary control flow.
func (c *Chain) Generate(ctx context.Context, req *Request) (*Result, error) {
	c.tally.recordRequest()
	attempts := make([]Attempt, 0, len(c.entries))

	for _, entry := range c.entries {
		if err := ctx.Err(); err != nil {
			return &Result{Attempts: attempts}, err
		}

		attempt, text := c.try(ctx, entry, req.Prompt)
		attempts = append(attempts, attempt)

		if attempt.Outcome == OutcomeSuccess {
			c.tally.recordAttempt(entry.ID, attempt.Outcome)
			c.tally.recordServed()
			return &Result{Text: text, Source: entry.ID, Attempts: attempts}, nil
		}
		c.tally.recordAttempt(entry.ID, attempt.Outcome)

		// A per-attempt deadline moves the chain on; a dead parent stops it.
		if err := ctx.Err(); err != nil {
			return &Result{Attempts: attempts}, err
		}
	}

	c.tally.recordExhaustion()
	c.logger.Warn("all backends exhausted", map[string]interface{}{
		"attempts": len(attempts),
	})
	return &Result{Attempts: attempts}, ErrAllBackendsExhausted
}

func (c *Chain) try(ctx context.Context, entry Entry, prompt string) (Attempt, string) {
	attemptCtx, cancel := context.WithTimeout(ctx, entry.Timeout)
	defer cancel()

	start := time.Now()
	text, err := entry.Generate(attemptCtx, prompt)
	latency := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = errBlankCompletion
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
		if attemptCtx.Err() == context.DeadlineExceeded {
			outcome = OutcomeTimeout
		}
	}

	attempt := Attempt{
		Backend:   entry.ID,
		Outcome:   outcome,
		LatencyMs: latency.Milliseconds(),
	}
	if err != nil {
		attempt.Error = err.Error()
	}

	metrics.BackendAttempts.WithLabelValues(entry.ID, outcome).Inc()
	metrics.BackendAttemptDuration.WithLabelValues(entry.ID).Observe(latency.Seconds())

	if outcome == OutcomeSuccess {
		c.logger.Info("backend attempt succeeded", map[string]interface{}{
			"backend":   entry.ID,
			"latencyMs": attempt.LatencyMs,
		})
	} else {
		c.logger.Warn("backend attempt failed", map[string]interface{}{
			"backend":   entry.ID,
			"outcome":   outcome,
			"latencyMs": attempt.LatencyMs,
			"error":     attempt.Error,
		})
	}

	return attempt, text
}

// Stats returns a snapshot of the chain's tallies since the last reset.
func (c *Chain) Stats() Stats {
	return c.tally.snapshot()
}

// ResetStats zeroes the tallies. Intended for tests and for operators
// who want a fresh observation window.
func (c *Chain) ResetStats() {
	c.tally.reset()
}
