package ai

import (
	"context"

	"resumecraft/internal/observability"
	"resumecraft/internal/reconcile"
	"resumecraft/internal/types"
	"resumecraft/internal/workflow"

	"go.opentelemetry.io/otel/attribute"
)

// Collaborators adapts the rescore and integrate services to the scorer
// and integrator the reconciler and workflow depend on. Every call is
// recorded in metrics.
type Collaborators struct {
	rescore   AIProvider
	integrate AIProvider
	om        *observability.ObservabilityManager
}

var (
	_ reconcile.Scorer    = (*Collaborators)(nil)
	_ workflow.Integrator = (*Collaborators)(nil)
)

// NewCollaborators creates the adapters. om may be nil.
func NewCollaborators(rescore, integrate *Service, om *observability.ObservabilityManager) *Collaborators {
	c := &Collaborators{om: om}
	if rescore != nil {
		c.rescore = rescore.Provider
	}
	if integrate != nil {
		c.integrate = integrate.Provider
	}
	return c
}

// Score implements reconcile.Scorer
func (c *Collaborators) Score(ctx context.Context, doc *types.TailoredResumeData, jobDescription string) (types.ScoreResult, error) {
	var result types.ScoreResult
	metrics := c.om.GetMetrics()

	err := metrics.TrackAIOperationWithTokens(ctx, "rescore", func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := c.rescore.RescoreResume(ctx, types.RescoreInput{
			Resume:         *doc,
			JobDescription: jobDescription,
		})
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, c.om)

	if err != nil {
		metrics.RecordBusinessMetric(ctx, observability.MetricScoreReconciled, false, c.om)
		return types.ScoreResult{}, err
	}
	metrics.RecordBusinessMetric(ctx, observability.MetricScoreReconciled, true, c.om,
		attribute.Int("ats.score", result.ATSScore))
	return result, nil
}

// Integrate implements workflow.Integrator
func (c *Collaborators) Integrate(ctx context.Context, doc *types.TailoredResumeData, keyword, section string) (*types.TailoredResumeData, error) {
	var result types.TailoredResumeData

	err := c.om.GetMetrics().TrackAIOperationWithTokens(ctx, "integrate", func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := c.integrate.IntegrateKeyword(ctx, types.IntegrateKeywordInput{
			Resume:  *doc,
			Keyword: keyword,
			Section: section,
		})
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, c.om)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
