// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"skyconnect-match/internal/catalog"
	commonerrors "skyconnect-match/internal/common/errors"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/metrics"
	"skyconnect-match/internal/common/observability"
	"skyconnect-match/internal/matching/parse-query"
	"skyconnect-match/internal/matching/score-candidates"
	"skyconnect-match/internal/models"
	"skyconnect-match/internal/respond/backend-chain"
	"skyconnect-match/internal/respond/fallback-format"
)

// internalErrorText is the only text a caller ever sees for an
// unexpected pipeline failure. Raw error detail stays in the logs.
const internalErrorText = "I'm having trouble processing your request right now. Please try again."

// Alerter is notified after every full chain exhaustion. Kept as a
// local interface so the orchestrator does not depend on the alerting
// wiring.
type Alerter interface {
	RecordExhaustion(ctx context.Context)
}

// Orchestrator runs the match pipeline: parse, fetch candidates, rank,
// generate or fall back. It never returns an error and never lets a
// panic escape.
type Orchestrator struct {
	config   *Config
	store    catalog.Store
	chain    *backendchain.Chain
	fallback *fallbackformat.Handler
	obs      *observability.Observability
	alerter  Alerter
	logger   logger.Logger
}

func New(
	cfg *Config,
	store catalog.Store,
	chain *backendchain.Chain,
	fallback *fallbackformat.Handler,
	obs *observability.Observability,
	alerter Alerter,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		config:   cfg,
		store:    store,
		chain:    chain,
		fallback: fallback,
		obs:      obs,
		alerter:  alerter,
		logger:   log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Respond serves one match request end to end.
//
// Degraded paths (store down, nothing matched, all backends exhausted)
// still produce success:true envelopes; success:false is reserved for
// unexpected internal failures, which are answered with a generic
// apology and never with raw error detail.
func (o *Orchestrator) Respond(ctx context.Context, userID string, profile models.UserProfile, freeText string) (envelope models.ResponseEnvelope) {
	start := time.Now()
	stage := parsequery.StageName

	defer func() {
		if recovered := recover(); recovered != nil {
			stdErr := commonerrors.FromPanic(stage, recovered)
			fields := stdErr.LogFields()
			fields["userId"] = userID
			fields["query"] = freeText
			fields["stack"] = string(debug.Stack())
			o.logger.Error("match request failed", fields)
			envelope = ErrorEnvelope()
		}
		metrics.MatchRequests.WithLabelValues(envelope.Source).Inc()
		o.obs.RecordRequest(ctx, envelope.Source)
		o.obs.RecordRequestDuration(ctx, time.Since(start), envelope.Source)
	}()

	// 1. Parse the free text. Unrecognized queries are not errors, they
	// just constrain nothing.
	_, done := o.stageTimer(ctx, parsequery.StageName)
	filters := parsequery.Parse(freeText)
	done()

	// 2. Fetch candidates. An unavailable store degrades to an empty
	// candidate list and the request keeps going.
	stage = "get-candidates"
	candCtx, done := o.stageTimer(ctx, "get-candidates")
	items, err := o.store.GetCandidates(candCtx, filters)
	done()
	if err != nil {
		if !errors.Is(err, catalog.ErrStoreUnavailable) {
			stdErr := commonerrors.Normalize(stage, err)
			fields := stdErr.LogFields()
			fields["userId"] = userID
			fields["query"] = freeText
			o.logger.Error("match request failed", fields)
			return ErrorEnvelope()
		}
		o.logger.Warn("candidate store unavailable, continuing without candidates", map[string]interface{}{
			"userId": userID,
		})
		items = nil
	}

	// 3. Rank against the profile.
	stage = scorecandidates.StageName
	_, done = o.stageTimer(ctx, scorecandidates.StageName)
	ranked := scorecandidates.Rank(items, profile, o.config.TopN)
	done()

	// 4. Nothing to recommend: deterministic fallback, still a success.
	if len(ranked) == 0 {
		return models.ResponseEnvelope{
			Text:            o.fallback.Format(nil),
			Recommendations: []models.MatchResult{},
			Source:          models.SourceFallback,
			Success:         true,
		}
	}

	// 5. Ask the backend chain for prose about the top matches.
	stage = "generate-response"
	chainCtx, done := o.stageTimer(ctx, "generate-response")
	prompt := BuildPrompt(profile.InterestTags, freeText, ranked, o.config.PromptWordLimit)
	result, err := o.chain.Generate(chainCtx, &backendchain.Request{Prompt: prompt})
	done()
	if err != nil {
		if errors.Is(err, backendchain.ErrAllBackendsExhausted) {
			if o.alerter != nil {
				o.alerter.RecordExhaustion(ctx)
			}
			o.logger.Warn("backend chain exhausted, serving fallback", map[string]interface{}{
				"userId":   userID,
				"attempts": len(result.Attempts),
			})
		} else {
			o.logger.Info("generation aborted, serving fallback", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		return models.ResponseEnvelope{
			Text:            o.fallback.Format(ranked),
			Recommendations: ranked,
			Source:          models.SourceFallback,
			Success:         true,
		}
	}

	return models.ResponseEnvelope{
		Text:            result.Text,
		Recommendations: ranked,
		Source:          result.Source,
		Success:         true,
	}
}

func (o *Orchestrator) stageTimer(ctx context.Context, stage string) (context.Context, func()) {
	spanCtx, span := o.obs.StartSpan(ctx, stage)
	start := time.Now()
	return spanCtx, func() {
		metrics.MatchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// ErrorEnvelope is the apology envelope for unexpected internal
// failures. The HTTP layer reuses it when a panic escapes past Respond.
func ErrorEnvelope() models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Text:            internalErrorText,
		Recommendations: []models.MatchResult{},
		Source:          models.SourceError,
		Success:         false,
	}
}
