package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// ErrCodeResponseParseFailed is returned when the model output does not
// decode into the expected type
const ErrCodeResponseParseFailed = "AI_RESPONSE_PARSE_FAILED"

const defaultModelCheckTimeout = 10 * time.Second

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client            *genai.Client
	config            *config.OperationAIConfig
	operation         string
	modelCheckTimeout time.Duration
	circuitBreaker    *breaker[*genai.GenerateContentResponse]
	modelBreaker      *breaker[*genai.Model]
	logger            *resumecraftErrors.Logger
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for one operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, modelCheckTimeout time.Duration, logger *resumecraftErrors.Logger) (*GeminiProvider, error) {
	if err := cfg.RequireAPIKey(operation); err != nil {
		return nil, resumecraftErrors.NewConfigError(resumecraftErrors.ErrCodeMissingAPIKey, err.Error(), nil)
	}
	if modelCheckTimeout <= 0 {
		modelCheckTimeout = defaultModelCheckTimeout
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:            client,
		config:            cfg,
		operation:         operation,
		modelCheckTimeout: modelCheckTimeout,
		circuitBreaker:    newOperationBreaker[*genai.GenerateContentResponse](operation, cfg, logger),
		modelBreaker:      newModelBreaker[*genai.Model](operation, cfg, logger),
		logger:            logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"operation", g.operation,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// backoffDelay is 2^(attempt-1) seconds plus up to 10% jitter, capped at 30s
func backoffDelay(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// isRetryableError reports whether err is transient
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) {
		return isRetryableStatus(genaiErrPtr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// executeAIOperation runs one model call with tracing, circuit breaking,
// retries and JSON decoding.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	contents []*genai.Content,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumecraft.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, resumecraftErrors.NewAIError(ErrCodeResponseParseFailed,
			"Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// GenerateAnalysis produces a tailored resume with its ATS analysis
func (g *GeminiProvider) GenerateAnalysis(ctx context.Context, input types.GenerateInput) (types.AnalysisResult, *TokenUsage, error) {
	role := strings.TrimSpace(input.RoleTitle)
	if role == "" {
		role = strings.TrimSpace(input.Profile.RoleAppliedFor)
	}
	if role == "" {
		return types.AnalysisResult{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"role applied for is required", nil)
	}
	if strings.TrimSpace(input.JobDescription) == "" {
		return types.AnalysisResult{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"job description is required", nil)
	}
	template := input.Template
	if template == "" {
		template = "professional"
	}

	profile := input.Profile
	profile.ProfilePicture = ""
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return types.AnalysisResult{}, nil, resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeInvalidRequest,
			"failed to encode profile", err)
	}

	prompts := promptsFor(config.OpGenerate, g.config)
	userPrompt := fmt.Sprintf(prompts.User, role, template, profileJSON, input.JobDescription)

	output, tokenUsage, err := executeAIOperation[types.AnalysisResult](
		g, ctx, "generate_analysis",
		genai.Text(userPrompt), prompts.System, g.jsonConfig(analysisSchema()),
		attribute.String("input.role", role),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.AnalysisResult{}, nil, err
	}

	result := document.NormalizeResult(&output)
	result.TailoredResume.JobTitle = role
	result.ATSScore = clampScore(result.ATSScore)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("ats.score", result.ATSScore),
			attribute.Int("keyword_gaps", len(result.KeywordGaps)),
			attribute.Bool("job_title_mismatch", result.JobTitleMismatch != nil),
		)
	}

	return *result, tokenUsage, nil
}

// RescoreResume scores a document against a job description
func (g *GeminiProvider) RescoreResume(ctx context.Context, input types.RescoreInput) (types.ScoreResult, *TokenUsage, error) {
	resumeJSON, err := json.MarshalIndent(input.Resume, "", "  ")
	if err != nil {
		return types.ScoreResult{}, nil, resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeInvalidDocument,
			"failed to encode resume", err)
	}

	prompts := promptsFor(config.OpRescore, g.config)
	userPrompt := fmt.Sprintf(prompts.User, resumeJSON, input.JobDescription)

	output, tokenUsage, err := executeAIOperation[types.ScoreResult](
		g, ctx, "rescore_resume",
		genai.Text(userPrompt), prompts.System, g.jsonConfig(scoreSchema()),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.ScoreResult{}, nil, err
	}

	output.ATSScore = clampScore(output.ATSScore)
	output.ATSScoreExplanation = strings.TrimSpace(output.ATSScoreExplanation)
	return output, tokenUsage, nil
}

// IntegrateKeyword weaves a keyword into one section and returns the
// complete document
func (g *GeminiProvider) IntegrateKeyword(ctx context.Context, input types.IntegrateKeywordInput) (types.TailoredResumeData, *TokenUsage, error) {
	if !types.IsValidSection(input.Section) {
		return types.TailoredResumeData{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"unsupported section", nil).WithContext("section", input.Section)
	}

	resumeJSON, err := json.MarshalIndent(input.Resume, "", "  ")
	if err != nil {
		return types.TailoredResumeData{}, nil, resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeInvalidDocument,
			"failed to encode resume", err)
	}

	prompts := promptsFor(config.OpIntegrate, g.config)
	userPrompt := fmt.Sprintf(prompts.User, input.Keyword, input.Section, resumeJSON)

	output, tokenUsage, err := executeAIOperation[types.TailoredResumeData](
		g, ctx, "integrate_keyword",
		genai.Text(userPrompt), prompts.System, g.jsonConfig(tailoredResumeSchema()),
		attribute.String("input.keyword", input.Keyword),
		attribute.String("input.section", input.Section),
	)
	if err != nil {
		return types.TailoredResumeData{}, nil, err
	}

	return *document.Normalize(&output), tokenUsage, nil
}

// ExtractJobDescription transcribes a job posting from an image
func (g *GeminiProvider) ExtractJobDescription(ctx context.Context, input types.ImageInput) (types.ExtractedText, *TokenUsage, error) {
	if len(input.Data) == 0 {
		return types.ExtractedText{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"image is empty", nil)
	}
	if !strings.HasPrefix(input.MIMEType, "image/") {
		return types.ExtractedText{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidFormat,
			"unsupported image type", nil).WithContext("mime_type", input.MIMEType)
	}

	prompts := promptsFor(config.OpExtract, g.config)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(input.Data, input.MIMEType),
			genai.NewPartFromText(prompts.User),
		}, genai.RoleUser),
	}

	output, tokenUsage, err := executeAIOperation[types.ExtractedText](
		g, ctx, "extract_job_description",
		contents, prompts.System, g.jsonConfig(extractedTextSchema()),
		attribute.String("input.mime_type", input.MIMEType),
		attribute.Int("input.image_bytes", len(input.Data)),
	)
	if err != nil {
		return types.ExtractedText{}, nil, err
	}

	output.Text = strings.TrimSpace(output.Text)
	if output.Text == "" {
		return types.ExtractedText{}, tokenUsage, resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeExtractionFailed,
			"no job description found in image", nil)
	}
	return output, tokenUsage, nil
}

// ParseProfile converts exported profile text into a partial profile
func (g *GeminiProvider) ParseProfile(ctx context.Context, input types.ParseProfileInput) (types.ProfileData, *TokenUsage, error) {
	if strings.TrimSpace(input.Text) == "" {
		return types.ProfileData{}, nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"profile text is empty", nil)
	}

	prompts := promptsFor(config.OpParseProfile, g.config)
	userPrompt := fmt.Sprintf(prompts.User, input.Text)

	output, tokenUsage, err := executeAIOperation[types.ProfileData](
		g, ctx, "parse_profile",
		genai.Text(userPrompt), prompts.System, g.jsonConfig(profileSchema()),
		attribute.Int("input.text_length", len(input.Text)),
	)
	if err != nil {
		return types.ProfileData{}, nil, err
	}

	return *document.NormalizeProfile(&output), tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements AIProvider. The genai client holds no resources in
// single-shot use.
func (g *GeminiProvider) Close() error {
	return nil
}

// jsonConfig requests JSON output matching schema
func (g *GeminiProvider) jsonConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
