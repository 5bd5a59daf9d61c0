package observability

import (
	"context"
	"fmt"
	"time"

	"resumeparser/internal/ai"
	"resumeparser/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the custom instruments of the resume parser
type Metrics struct {
	// AI extraction metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Pipeline metrics
	ParseCount    metric.Int64Counter
	ParseDuration metric.Float64Histogram
	TextLength    metric.Int64Histogram

	// Infrastructure metrics
	CertReloadCount metric.Int64Counter
	RateLimitHits   metric.Int64Counter
}

// initCustomMetrics creates all custom metrics for the resume parser
func (om *ObservabilityManager) initCustomMetrics() error {
	meter := om.meterProvider.Meter(om.config.ServiceName)
	om.metrics = &Metrics{}

	if err := om.createAIMetrics(meter); err != nil {
		return err
	}

	if err := om.createParseMetrics(meter); err != nil {
		return err
	}

	return om.createInfrastructureMetrics(meter)
}

// createAIMetrics creates AI-related metrics
func (om *ObservabilityManager) createAIMetrics(meter metric.Meter) error {
	var err error

	om.metrics.AIProcessingTime, err = meter.Float64Histogram(
		"resumeparser_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in structured extraction calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	om.metrics.AIRequestCount, err = meter.Int64Counter(
		"resumeparser_ai_requests_total",
		metric.WithDescription("Total number of structured extraction calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	om.metrics.AIErrorCount, err = meter.Int64Counter(
		"resumeparser_ai_errors_total",
		metric.WithDescription("Total number of failed structured extraction calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	om.metrics.AITokenUsage, err = meter.Int64Histogram(
		"resumeparser_ai_token_usage_total",
		metric.WithDescription("Token usage for extraction calls (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

// createParseMetrics creates pipeline outcome metrics
func (om *ObservabilityManager) createParseMetrics(meter metric.Meter) error {
	var err error

	om.metrics.ParseCount, err = meter.Int64Counter(
		"resumeparser_parses_total",
		metric.WithDescription("Total number of parse requests by outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create parse count metric: %w", err)
	}

	om.metrics.ParseDuration, err = meter.Float64Histogram(
		"resumeparser_parse_duration_seconds",
		metric.WithDescription("End to end time of a parse request"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create parse duration metric: %w", err)
	}

	om.metrics.TextLength, err = meter.Int64Histogram(
		"resumeparser_resume_text_characters",
		metric.WithDescription("Characters of text extracted from uploaded resumes"),
		metric.WithUnit("{character}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create text length metric: %w", err)
	}

	return nil
}

// createInfrastructureMetrics creates certificate and rate limiting metrics
func (om *ObservabilityManager) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	om.metrics.CertReloadCount, err = meter.Int64Counter(
		"resumeparser_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}

	om.metrics.RateLimitHits, err = meter.Int64Counter(
		"resumeparser_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// RecordExtraction records one structured extraction call
func (m *Metrics) RecordExtraction(ctx context.Context, provider string, duration time.Duration, usage *ai.TokenUsage, err error, om *ObservabilityManager) {
	if m == nil || m.AIRequestCount == nil || !om.aiMetricsEnabled() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	}

	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	custom := om.customMetrics()
	if custom == nil || custom.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}

	if usage == nil || (custom != nil && !custom.AIOperations.TrackTokenUsage) {
		return
	}

	for tokenType, count := range map[string]int64{
		"input":  usage.InputTokens,
		"output": usage.OutputTokens,
		"total":  usage.TotalTokens,
	} {
		if count <= 0 {
			continue
		}
		m.AITokenUsage.Record(ctx, count, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("token_type", tokenType),
		))
	}
}

// RecordParse records the outcome of one parse request
func (m *Metrics) RecordParse(ctx context.Context, outcome string, textLength int, duration time.Duration, om *ObservabilityManager) {
	if m == nil || m.ParseCount == nil || !om.parseMetricsEnabled() {
		return
	}

	custom := om.customMetrics()
	if custom == nil || custom.ParseMetrics.TrackOutcomes {
		attrs := metric.WithAttributes(attribute.String("outcome", outcome))
		m.ParseCount.Add(ctx, 1, attrs)
		m.ParseDuration.Record(ctx, duration.Seconds(), attrs)
	}

	if textLength > 0 && (custom == nil || custom.ParseMetrics.TrackContentSizes) {
		m.TextLength.Record(ctx, int64(textLength))
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter
func (m *Metrics) RecordRateLimitHit(ctx context.Context, key string, om *ObservabilityManager) {
	if m == nil || m.RateLimitHits == nil || !om.infrastructureMetricsEnabled() {
		return
	}
	if custom := om.customMetrics(); custom != nil && !custom.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", key)))
}

// RecordCertReload records a TLS certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool, om *ObservabilityManager) {
	if m == nil || m.CertReloadCount == nil || !om.infrastructureMetricsEnabled() {
		return
	}
	if custom := om.customMetrics(); custom != nil && !custom.Infrastructure.TrackCertReloads {
		return
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// customMetrics returns nil when no configuration is attached, in which case
// every metric is recorded
func (om *ObservabilityManager) customMetrics() *config.CustomMetricsConfig {
	if om == nil || om.fullConfig == nil {
		return nil
	}
	return &om.fullConfig.Observability.CustomMetrics
}

func (om *ObservabilityManager) aiMetricsEnabled() bool {
	c := om.customMetrics()
	return c == nil || c.AIOperations.Enabled
}

func (om *ObservabilityManager) parseMetricsEnabled() bool {
	c := om.customMetrics()
	return c == nil || c.ParseMetrics.Enabled
}

func (om *ObservabilityManager) infrastructureMetricsEnabled() bool {
	c := om.customMetrics()
	return c == nil || c.Infrastructure.Enabled
}

// ParseObserver reports pipeline events from the parser into the metrics
type ParseObserver struct {
	om *ObservabilityManager
}

// ParseObserver returns an observer bound to this manager. It is safe to use
// when observability is disabled.
func (om *ObservabilityManager) ParseObserver() *ParseObserver {
	return &ParseObserver{om: om}
}

// ObserveExtraction records a structured extraction call
func (o *ParseObserver) ObserveExtraction(ctx context.Context, provider string, duration time.Duration, usage *ai.TokenUsage, err error) {
	o.om.GetMetrics().RecordExtraction(ctx, provider, duration, usage, err, o.om)
}

// ObserveParse records a completed parse request
func (o *ParseObserver) ObserveParse(ctx context.Context, outcome string, textLength int, duration time.Duration) {
	o.om.GetMetrics().RecordParse(ctx, outcome, textLength, duration, o.om)
}
