package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricAnalysisGenerated  = "analysis_generated"
	MetricScoreReconciled    = "score_reconciled"
	MetricKeywordIntegrated  = "keyword_integrated"
	MetricJobTitleFixed      = "job_title_fixed"
	MetricProfileParsed      = "profile_parsed"
	MetricImageExtracted     = "image_extracted"
	MetricWorkflowConflict   = "workflow_conflict"
	MetricAccountCreated     = "account_created"
	MetricRateLimitHit       = "rate_limit_hit"
	metricNamePrefix         = "resumecraft_"
	aiMetricTokenTypeAttrKey = "token_type"
)

type businessMetric struct {
	name        string
	description string
}

var businessMetrics = map[string]businessMetric{
	MetricAnalysisGenerated: {"analyses_generated_total", "Total number of tailored resume analyses generated"},
	MetricScoreReconciled:   {"scores_reconciled_total", "Total number of ATS score reconciliations"},
	MetricKeywordIntegrated: {"keywords_integrated_total", "Total number of keyword integration workflows"},
	MetricJobTitleFixed:     {"job_titles_fixed_total", "Total number of job title fix workflows"},
	MetricProfileParsed:     {"profiles_parsed_total", "Total number of profiles parsed from exported text"},
	MetricImageExtracted:    {"images_extracted_total", "Total number of job descriptions extracted from images"},
	MetricWorkflowConflict:  {"workflow_conflicts_total", "Total number of workflows rejected as busy or stale"},
	MetricAccountCreated:    {"accounts_created_total", "Total number of accounts created"},
	MetricRateLimitHit:      {"rate_limit_hits_total", "Total number of rate limit hits"},
}

// Metrics holds every custom instrument. The zero value records nothing.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	business map[string]metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{business: make(map[string]metric.Int64Counter, len(businessMetrics))}
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		metricNamePrefix+"ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		metricNamePrefix+"ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		metricNamePrefix+"ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		metricNamePrefix+"ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	for metricType, bm := range businessMetrics {
		counter, err := meter.Int64Counter(
			metricNamePrefix+bm.name,
			metric.WithDescription(bm.description),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", metricType, err)
		}
		m.business[metricType] = counter
	}

	return m, nil
}

// TrackAIOperationWithTokens instruments an AI operation with tracing,
// metrics and token usage. It returns the operation's error.
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m == nil || m.AIProcessingTime == nil {
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	toggles := om.customMetrics().AIOperations

	tracer := otel.Tracer("resumecraft.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if toggles.Enabled {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		if toggles.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if result != nil && result.TokenUsage != nil {
			m.recordTokenUsage(ctx, result.TokenUsage, attrs, toggles.TrackTokenUsage, span)
		}
		span.SetAttributes(attrs...)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// recordTokenUsage always annotates the span; the histogram is optional
func (m *Metrics) recordTokenUsage(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue, record bool, span oteltrace.Span) {
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
	if !record {
		return
	}

	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
		tokenAttrs = append(tokenAttrs, attrs...)
		tokenAttrs = append(tokenAttrs, attribute.String(aiMetricTokenTypeAttrKey, tt.tokenType))
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusinessMetric increments the counter for metricType. Unknown
// types are ignored.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if m == nil {
		return
	}
	counter, ok := m.business[metricType]
	if !ok {
		return
	}

	toggles := om.customMetrics()
	if metricType == MetricRateLimitHit {
		if !toggles.Infrastructure.Enabled || !toggles.Infrastructure.TrackRateLimits {
			return
		}
	} else if !toggles.BusinessMetrics.Enabled {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes)+1)
	if toggles.BusinessMetrics.TrackSuccessRates || metricType == MetricRateLimitHit {
		attrs = append(attrs, attribute.Bool("success", success))
	}
	attrs = append(attrs, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
