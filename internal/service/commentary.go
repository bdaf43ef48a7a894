package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/observability"
)

// FallbackCommentary is shown whenever generated commentary is unavailable.
const FallbackCommentary = "We couldn't fetch additional insights right now. Please try again later."

// CommentaryTimeout bounds one generative-text call.
const CommentaryTimeout = 15 * time.Second

// Enricher fetches best-effort commentary for a result. Its failures never
// propagate: callers always get text to show.
type Enricher struct {
	commentator Commentator
	backend     string
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewEnricher creates an enricher. A nil commentator always yields the fallback.
func NewEnricher(c Commentator, m *observability.Metrics, logger *zap.Logger) *Enricher {
	e := &Enricher{commentator: c, metrics: m, logger: logger, backend: "none"}
	if n, ok := c.(interface{ Name() string }); ok {
		e.backend = n.Name()
	}
	return e
}

// Commentary returns generated text for label and whether it is generated
// (false means the fallback sentence).
func (e *Enricher) Commentary(ctx context.Context, label string) (string, bool) {
	if e.commentator == nil {
		e.metrics.Commentary.WithLabelValues(observability.OutcomeFallback).Inc()
		return FallbackCommentary, false
	}

	ctx, cancel := context.WithTimeout(ctx, CommentaryTimeout)
	defer cancel()

	start := time.Now()
	text, err := e.commentator.Comment(ctx, label)
	e.metrics.CommentaryLatency.Observe(time.Since(start).Seconds())
	if err != nil || text == "" {
		e.logger.Warn("commentary unavailable",
			zap.String("backend", e.backend),
			zap.String("label", label),
			zap.Error(err),
		)
		e.metrics.Commentary.WithLabelValues(observability.OutcomeFallback).Inc()
		return FallbackCommentary, false
	}

	e.metrics.Commentary.WithLabelValues(observability.OutcomeSuccess).Inc()
	e.logger.Debug("commentary generated", zap.String("backend", e.backend), zap.String("label", label))
	return text, true
}
