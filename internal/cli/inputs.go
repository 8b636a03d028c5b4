package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"resumecraft/internal/ai"
	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/ingest"
	"resumecraft/internal/types"
)

// inputs turns command arguments into typed inputs. AI services are built
// on first use, so commands that never call the model run without a key.
type inputs struct {
	cfg    *config.Config
	logger *errors.Logger
	loader *ingest.Loader

	mu       sync.Mutex
	services map[string]*ai.Service
}

func newInputs(cfg *config.Config, logger *errors.Logger) *inputs {
	return &inputs{
		cfg:      cfg,
		logger:   logger,
		loader:   ingest.NewLoader(cfg.App.MaxFileSize, logger),
		services: make(map[string]*ai.Service),
	}
}

// service returns the AI service for op, creating it once
func (in *inputs) service(op string) (*ai.Service, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if svc, ok := in.services[op]; ok {
		return svc, nil
	}
	opCfg := in.cfg.GetOperationConfig(op)
	svc, err := ai.NewService(&opCfg, op, in.cfg.Observability.HealthCheck.AIModelCheckTimeout, in.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s AI service: %w", op, err)
	}
	in.services[op] = svc
	return svc, nil
}

// Close closes every service created so far
func (in *inputs) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for op, svc := range in.services {
		if err := svc.Close(); err != nil {
			in.logger.Warn("Failed to close AI service", "operation", op, "error", err)
		}
	}
	in.services = map[string]*ai.Service{}
}

// profile reads a profile from JSON, or parses it with the model from a
// LinkedIn PDF export or plain text
func (in *inputs) profile(ctx context.Context, filename string) (types.ProfileData, error) {
	data, err := in.loader.ReadFile(filename)
	if err != nil {
		return types.ProfileData{}, err
	}

	var text string
	switch ingest.Detect(filename, data) {
	case ingest.KindJSON:
		var profile types.ProfileData
		if err := json.Unmarshal(data, &profile); err != nil {
			return types.ProfileData{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Invalid profile JSON: %s", filename), err)
		}
		return *document.NormalizeProfile(&profile), nil
	case ingest.KindPDF:
		if text, err = ingest.ExtractPDFText(data); err != nil {
			return types.ProfileData{}, err
		}
	case ingest.KindImage:
		return types.ProfileData{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Profile must be JSON, PDF or text, got an image: %s", filename), nil)
	default:
		text = string(data)
	}

	return in.parseProfileText(ctx, text)
}

// parseProfileText sends raw profile text to the model
func (in *inputs) parseProfileText(ctx context.Context, text string) (types.ProfileData, error) {
	svc, err := in.service(config.OpParseProfile)
	if err != nil {
		return types.ProfileData{}, err
	}

	in.logger.Info("Parsing profile", "text_chars", len(text))
	profile, err := common.RunAIOperation(ctx, in.logger, config.OpParseProfile,
		types.ParseProfileInput{Text: text}, svc.Provider.ParseProfile)
	if err != nil {
		return types.ProfileData{}, err
	}
	return *document.NormalizeProfile(&profile), nil
}

// jobDescription reads a job description from text or PDF, or extracts it
// with the model from a screenshot
func (in *inputs) jobDescription(ctx context.Context, filename string) (string, error) {
	data, err := in.loader.ReadFile(filename)
	if err != nil {
		return "", err
	}

	switch ingest.Detect(filename, data) {
	case ingest.KindImage:
		image, err := ingest.DetectImage(data)
		if err != nil {
			return "", err
		}
		extracted, err := in.extractImage(ctx, image)
		if err != nil {
			return "", err
		}
		return extracted.Text, nil
	case ingest.KindPDF:
		return ingest.ExtractPDFText(data)
	default:
		return string(data), nil
	}
}

// extractImage sends a job description screenshot to the model
func (in *inputs) extractImage(ctx context.Context, image types.ImageInput) (types.ExtractedText, error) {
	svc, err := in.service(config.OpExtract)
	if err != nil {
		return types.ExtractedText{}, err
	}

	in.logger.Info("Extracting job description from image",
		"mime_type", image.MIMEType,
		"size", ingest.FormatFileSize(int64(len(image.Data))))
	return common.RunAIOperation(ctx, in.logger, config.OpExtract, image, svc.Provider.ExtractJobDescription)
}

// analysis reads a saved AnalysisResult, checking it against the document
// schema first
func (in *inputs) analysis(filename string) (*types.AnalysisResult, error) {
	data, err := in.loader.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return decodeAnalysis(data, filename)
}

func decodeAnalysis(data []byte, filename string) (*types.AnalysisResult, error) {
	if err := document.Validate(document.SchemaAnalysis, data); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidDocument,
			fmt.Sprintf("%s is not a valid analysis result", filename), err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidDocument,
			fmt.Sprintf("Failed to decode analysis result: %s", filename), err)
	}
	return document.NormalizeResult(&result), nil
}
