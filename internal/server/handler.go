package server

import (
	"context"
	"net/http"
	"strings"

	"resumecraft/internal/config"
	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/ingest"
	"resumecraft/internal/observability"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "resumecraft.api"

// startSpan opens the handler span
func (s *Server) startSpan(r *http.Request, name string) (context.Context, oteltrace.Span) {
	return s.om.Tracer(tracerName).Start(r.Context(), name)
}

// fail records err on span and writes it to the client
func (s *Server) fail(w http.ResponseWriter, span oteltrace.Span, title string, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(resumecraftErrors.TypeOf(err))))
	s.writeAppError(w, title, err)
}

// asAIError keeps AppErrors from the provider and wraps anything else
func asAIError(err error, message string) error {
	if _, ok := resumecraftErrors.AsAppError(err); ok {
		return err
	}
	return resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeAIServiceFailed, message, err)
}

// checkPicture rejects picture references that would make the server read
// its own files
func checkPicture(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:image/") ||
		strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return nil
	}
	return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
		"profilePicture must be an image data URL or an http(s) URL", nil)
}

func (s *Server) defaultTemplate() string {
	if s.AppConfig != nil && s.AppConfig.App.DefaultTemplate != "" {
		return s.AppConfig.App.DefaultTemplate
	}
	return string(templates.Professional)
}

// generateHandler generates an analysis and opens a workspace on it
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.generate")
	defer span.End()

	var req GenerateRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	templateName := req.Template
	if templateName == "" {
		templateName = s.defaultTemplate()
	}
	variant, err := templates.ParseVariant(templateName)
	if err != nil {
		s.fail(w, span, "Unsupported template", err)
		return
	}

	picture := req.ProfilePicture
	if picture == "" {
		picture = req.Profile.ProfilePicture
	}
	if err := checkPicture(picture); err != nil {
		s.fail(w, span, "Invalid profile picture", err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.String("request.template", string(variant)),
		attribute.String("operation", config.OpGenerate),
	)

	input := types.GenerateInput{
		Profile:        *document.NormalizeProfile(&req.Profile),
		JobDescription: req.JobDescription,
		RoleTitle:      req.RoleTitle,
		Template:       string(variant),
	}

	metrics := s.om.GetMetrics()
	var result types.AnalysisResult
	err = metrics.TrackAIOperationWithTokens(ctx, config.OpGenerate, func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := s.Deps.Services.Generate.Provider.GenerateAnalysis(ctx, input)
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, s.om)
	if err != nil {
		metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisGenerated, false, s.om)
		s.fail(w, span, "Failed to generate analysis", asAIError(err, "analysis generation failed"))
		return
	}

	ws, snap := s.Deps.Workspaces.Create(document.NormalizeResult(&result), req.JobDescription, picture, variant)

	metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisGenerated, true, s.om,
		attribute.Int("ats.score", snap.Result.ATSScore),
		attribute.Bool("job_title.mismatch", snap.Result.JobTitleMismatch != nil))
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("workspace.id", ws.ID),
		attribute.Int("ats.score", snap.Result.ATSScore),
	)

	s.writeJSON(w, http.StatusCreated, newWorkspaceResponse(ws.ID, ws.Template, snap))
}

// extractImageHandler turns a raw job description screenshot into text
func (s *Server) extractImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.extract_image")
	defer span.End()

	body, err := readBody(r)
	if err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}
	image, err := ingest.DetectImage(body)
	if err != nil {
		s.fail(w, span, "Invalid image", err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.image_size", len(image.Data)),
		attribute.String("request.mime_type", image.MIMEType),
		attribute.String("operation", config.OpExtract),
	)

	metrics := s.om.GetMetrics()
	var result types.ExtractedText
	err = metrics.TrackAIOperationWithTokens(ctx, config.OpExtract, func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := s.Deps.Services.Extract.Provider.ExtractJobDescription(ctx, image)
		result = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, s.om)
	if err != nil {
		metrics.RecordBusinessMetric(ctx, observability.MetricImageExtracted, false, s.om)
		s.fail(w, span, "Failed to extract job description", asAIError(err, "image extraction failed"))
		return
	}

	metrics.RecordBusinessMetric(ctx, observability.MetricImageExtracted, true, s.om,
		attribute.String("mime_type", image.MIMEType))
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("response.text_length", len(result.Text)))

	s.writeJSON(w, http.StatusOK, result)
}

// parseProfileHandler parses a profile from JSON {text}, plain text or a
// LinkedIn PDF export
func (s *Server) parseProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.parse_profile")
	defer span.End()

	text, source, err := s.profileText(r)
	if err != nil {
		s.fail(w, span, "Invalid profile", err)
		return
	}

	span.SetAttributes(
		attribute.Int("request.text_length", len(text)),
		attribute.String("request.source", source),
		attribute.String("operation", config.OpParseProfile),
	)

	metrics := s.om.GetMetrics()
	var profile types.ProfileData
	err = metrics.TrackAIOperationWithTokens(ctx, config.OpParseProfile, func(ctx context.Context) *observability.AIOperationResult {
		output, tokenUsage, aiErr := s.Deps.Services.ParseProfile.Provider.ParseProfile(ctx, types.ParseProfileInput{Text: text})
		profile = output
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(tokenUsage),
		}
	}, s.om)
	if err != nil {
		metrics.RecordBusinessMetric(ctx, observability.MetricProfileParsed, false, s.om)
		s.fail(w, span, "Failed to parse profile", asAIError(err, "profile parsing failed"))
		return
	}

	metrics.RecordBusinessMetric(ctx, observability.MetricProfileParsed, true, s.om,
		attribute.String("source", source))
	span.SetAttributes(attribute.Bool("success", true))

	s.writeJSON(w, http.StatusOK, document.NormalizeProfile(&profile))
}

// profileText reads the profile text and reports where it came from
func (s *Server) profileText(r *http.Request) (string, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req ParseProfileRequest
		if err := s.parseJSONRequest(r, &req); err != nil {
			return "", "", err
		}
		return req.Text, "json", nil
	}

	body, err := readBody(r)
	if err != nil {
		return "", "", err
	}
	if ingest.IsPDF(body) {
		text, err := ingest.ExtractPDFText(body)
		return text, "pdf", err
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", "", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"profile text is empty", nil)
	}
	return text, "text", nil
}
