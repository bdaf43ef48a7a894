package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/observability"
)

// ErrPredictionFailed wraps any failure to obtain a label from the endpoint.
var ErrPredictionFailed = errors.New("prediction failed")

// RetryMessage is shown to the user when the prediction call fails.
const RetryMessage = "Some Error Occurred. Try again."

// PredictTimeout bounds one shared call to the prediction endpoint.
const PredictTimeout = 30 * time.Second

// Recommendation is the result of a successful submission.
type Recommendation struct {
	Label string
	Token string // handoff token for the result view
}

// Recommender validates a form, calls the prediction endpoint and hands the
// label off to the result view.
type Recommender struct {
	predictor Predictor
	handoff   *Handoff
	policy    crop.Policy
	metrics   *observability.Metrics
	logger    *zap.Logger

	inflight singleflight.Group
}

// NewRecommender creates a recommender.
func NewRecommender(p Predictor, h *Handoff, policy crop.Policy, m *observability.Metrics, logger *zap.Logger) *Recommender {
	return &Recommender{
		predictor: p,
		handoff:   h,
		policy:    policy,
		metrics:   m,
		logger:    logger,
	}
}

// Policy returns the range enforcement policy.
func (r *Recommender) Policy() crop.Policy {
	return r.policy
}

// Submit validates form and requests a prediction.
//
// Validation failures are returned as *crop.EmptyFieldError,
// *crop.InvalidNumberError or *crop.RangeError without any network call.
// Endpoint failures are logged and returned wrapping ErrPredictionFailed.
// Concurrent submissions of the same vector share one upstream call.
func (r *Recommender) Submit(ctx context.Context, form crop.FormState) (Recommendation, error) {
	vec, err := crop.Validate(form, r.policy)
	if err != nil {
		r.metrics.Predictions.WithLabelValues(observability.OutcomeInvalid).Inc()
		return Recommendation{}, err
	}

	// Detached from the first caller; each caller stops waiting on its own ctx.
	ch := r.inflight.DoChan(fmt.Sprint(vec), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PredictTimeout)
		defer cancel()

		start := time.Now()
		label, err := r.predictor.Predict(ctx, vec)
		r.metrics.PredictionLatency.Observe(time.Since(start).Seconds())
		return label, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		r.metrics.Predictions.WithLabelValues(observability.OutcomeError).Inc()
		r.logger.Info("prediction abandoned by caller", zap.Error(ctx.Err()))
		return Recommendation{}, fmt.Errorf("%w: %w", ErrPredictionFailed, ctx.Err())
	}
	if res.Err != nil {
		r.metrics.Predictions.WithLabelValues(observability.OutcomeError).Inc()
		r.logger.Error("prediction request failed", zap.Error(res.Err), zap.Float64s("vector", vec[:]))
		return Recommendation{}, fmt.Errorf("%w: %w", ErrPredictionFailed, res.Err)
	}
	label := res.Val.(string)

	token, err := r.handoff.Put(label)
	if err != nil {
		r.metrics.Predictions.WithLabelValues(observability.OutcomeError).Inc()
		return Recommendation{}, fmt.Errorf("store result: %w", err)
	}

	r.metrics.Predictions.WithLabelValues(observability.OutcomeSuccess).Inc()
	r.logger.Info("prediction succeeded", zap.String("label", label), zap.Bool("shared", res.Shared))
	return Recommendation{Label: label, Token: token}, nil
}

// Result resolves a handoff token to its label.
func (r *Recommender) Result(token string) (string, bool) {
	return r.handoff.Get(token)
}
