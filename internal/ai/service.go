package ai

import (
	"context"
	"fmt"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"
)

// Service handles AI operations for one configured operation
type Service struct {
	Provider  AIProvider
	Operation string
	config    *config.OperationAIConfig
	logger    *errors.Logger
}

// NewService creates an AI service for an operation. modelCheckTimeout
// bounds health check lookups; zero uses the default.
func NewService(cfg *config.OperationAIConfig, operation string, modelCheckTimeout time.Duration, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	var provider AIProvider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operation, modelCheckTimeout, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return NewServiceWithProvider(provider, cfg, operation, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider AIProvider, cfg *config.OperationAIConfig, operation string, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Service{
		Provider:  provider,
		Operation: operation,
		config:    cfg,
		logger:    logger,
	}
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

// Services holds one Service per operation
type Services struct {
	Generate     *Service
	Rescore      *Service
	Integrate    *Service
	Extract      *Service
	ParseProfile *Service
}

// NewServices builds a Service for every operation in cfg
func NewServices(cfg *config.Config, logger *errors.Logger) (*Services, error) {
	timeout := cfg.Observability.HealthCheck.AIModelCheckTimeout
	build := func(op string, opCfg config.OperationAIConfig) (*Service, error) {
		svc, err := NewService(&opCfg, op, timeout, logger)
		if err != nil {
			return nil, fmt.Errorf("%s service: %w", op, err)
		}
		return svc, nil
	}

	var s Services
	var err error
	if s.Generate, err = build(config.OpGenerate, cfg.GetGenerateConfig()); err != nil {
		return nil, err
	}
	if s.Rescore, err = build(config.OpRescore, cfg.GetRescoreConfig()); err != nil {
		return nil, err
	}
	if s.Integrate, err = build(config.OpIntegrate, cfg.GetIntegrateConfig()); err != nil {
		return nil, err
	}
	if s.Extract, err = build(config.OpExtract, cfg.GetExtractConfig()); err != nil {
		return nil, err
	}
	if s.ParseProfile, err = build(config.OpParseProfile, cfg.GetParseProfileConfig()); err != nil {
		return nil, err
	}
	return &s, nil
}

// All returns the services keyed by operation
func (s *Services) All() map[string]*Service {
	return map[string]*Service{
		config.OpGenerate:     s.Generate,
		config.OpRescore:      s.Rescore,
		config.OpIntegrate:    s.Integrate,
		config.OpExtract:      s.Extract,
		config.OpParseProfile: s.ParseProfile,
	}
}

// Close closes every service
func (s *Services) Close() error {
	var firstErr error
	for _, svc := range s.All() {
		if svc == nil {
			continue
		}
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
