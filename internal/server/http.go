package server

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"resumecraft/internal/account"
	"resumecraft/internal/ai"
	"resumecraft/internal/config"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/export"
	"resumecraft/internal/formatters"
	"resumecraft/internal/ingest"
	"resumecraft/internal/observability"
	"resumecraft/internal/storage"
	"resumecraft/internal/types"
	"resumecraft/internal/workspace"

	"github.com/go-playground/validator/v10"
)

// GenerateRequest starts a new workspace from a profile and a job description
type GenerateRequest struct {
	Profile        types.ProfileData `json:"profile"`
	JobDescription string            `json:"jobDescription" validate:"required"`
	RoleTitle      string            `json:"roleTitle" validate:"required,max=200"`
	Template       string            `json:"template"`
	ProfilePicture string            `json:"profilePicture"`
}

// FieldChangeRequest replaces one node of a surface's working copy
type FieldChangeRequest struct {
	Path  string `json:"path" validate:"required"`
	Value any    `json:"value"`
}

// KeywordRequest integrates a keyword gap into one section
type KeywordRequest struct {
	Keyword string `json:"keyword" validate:"required,max=100"`
	Section string `json:"section" validate:"required"`
}

// ParseProfileRequest carries profile text already extracted by the client
type ParseProfileRequest struct {
	Text string `json:"text" validate:"required"`
}

// SignupRequest creates an unverified account
type SignupRequest struct {
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Profile  *types.ProfileData `json:"profile,omitempty"`
}

// LoginRequest carries account credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest marks an account as verified
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// WorkspaceResponse is returned by every call that moves a workspace
type WorkspaceResponse struct {
	WorkspaceID string                `json:"workspaceId"`
	Version     uint64                `json:"version"`
	Template    string                `json:"template"`
	Result      *types.AnalysisResult `json:"result"`
	Warning     string                `json:"warning,omitempty"`
}

// SurfaceResponse reports an editing surface's working copy
type SurfaceResponse struct {
	WorkspaceID string                    `json:"workspaceId"`
	Surface     string                    `json:"surface"`
	Dirty       bool                      `json:"dirty"`
	Document    *types.TailoredResumeData `json:"document"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Deps are the services the handlers call into
type Deps struct {
	Services   *ai.Services
	Workspaces *workspace.Manager
	Accounts   *account.Service
	Loader     *ingest.Loader
	PDF        *export.PDFRenderer
	Formatters *formatters.FormatterRegistry
	Storage    *storage.Store
}

// APIKeySet is the set of keys accepted by the auth middleware. It can be
// replaced while serving.
type APIKeySet struct {
	mu   sync.RWMutex
	keys map[string]bool
}

// NewAPIKeySet creates a set from keys, skipping empty ones
func NewAPIKeySet(keys []string) *APIKeySet {
	s := &APIKeySet{}
	s.Replace(keys)
	return s
}

// Replace swaps the accepted keys
func (s *APIKeySet) Replace(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	s.mu.Lock()
	s.keys = m
	s.mu.Unlock()
}

// Has reports whether key is accepted
func (s *APIKeySet) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[key]
}

// Len returns the number of accepted keys
func (s *APIKeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	APIKeys *APIKeySet

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Deps Deps

	Logger *resumecraftErrors.Logger

	om            *observability.ObservabilityManager
	validate      *validator.Validate
	promptWatcher *config.PromptWatcher
	keyWatcher    *VaultWatcher
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServerConfig derives a ServerConfig from the application config
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Deps, logger *resumecraftErrors.Logger) *Server {
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	if deps.Formatters == nil {
		deps.Formatters = formatters.GlobalRegistry
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		APIKeys:        NewAPIKeySet(cfg.APIKeys),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Deps:           deps,
		Logger:         logger,
		validate:       newValidator(),
	}
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
