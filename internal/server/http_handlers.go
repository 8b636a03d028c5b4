package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"resumecraft/internal/ai"
	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const defaultHealthCheckTimeout = 10 * time.Second

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig == nil || s.AppConfig.Observability.HealthCheck.Timeout <= 0 {
		return defaultHealthCheckTimeout
	}
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler reports AI model availability, circuit breaker state and
// storage reachability. Any unavailable model or storage makes the service
// degraded.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumecraft",
		"version": s.Version,
	}

	models := s.checkAIModelsHealth(ctx)
	response["ai_models"] = models
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	healthy := true
	for _, info := range models {
		if !info.Available {
			healthy = false
			break
		}
	}

	if s.Deps.Storage != nil {
		storageStatus := map[string]any{"available": true}
		if err := s.Deps.Storage.Ping(ctx); err != nil {
			storageStatus["available"] = false
			storageStatus["error"] = err.Error()
			healthy = false
		}
		response["storage"] = storageStatus
	}

	if s.Deps.Workspaces != nil {
		response["workspaces"] = s.Deps.Workspaces.Len()
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// checkAIModelsHealth looks up every operation's model concurrently
func (s *Server) checkAIModelsHealth(ctx context.Context) map[string]*ai.ModelInfo {
	status := make(map[string]*ai.ModelInfo)
	if s.Deps.Services == nil {
		return status
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for op, svc := range s.Deps.Services.All() {
		if svc == nil {
			continue
		}
		g.Go(func() error {
			info := svc.GetModelInfo(gctx)
			if info == nil {
				info = &ai.ModelInfo{Available: false, Error: "no model information"}
			}
			mu.Lock()
			status[op] = info
			mu.Unlock()
			return nil
		})
	}
	// The goroutines never fail; errors are reported per model.
	_ = g.Wait()
	return status
}

type breakerReporter interface {
	GetCircuitBreakerStats() map[string]any
}

// checkCircuitBreakerHealth collects breaker state from providers that
// expose it
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	if s.Deps.Services == nil {
		return status
	}
	for op, svc := range s.Deps.Services.All() {
		if svc == nil {
			continue
		}
		if reporter, ok := svc.Provider.(breakerReporter); ok {
			status[op] = reporter.GetCircuitBreakerStats()
		} else {
			status[op] = map[string]any{"available": false}
		}
	}
	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumecraft",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    s.APIKeys.Len(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.Deps.Workspaces != nil {
		response["workspaces"] = s.Deps.Workspaces.List()
	}
	if s.keyWatcher != nil {
		response["vault_watcher"] = s.keyWatcher.Status()
	}
	if s.Deps.Formatters != nil {
		response["export_formats"] = append(s.Deps.Formatters.GetSupportedFormats(), "pdf")
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes the JSON body into v and validates its tags
func (s *Server) parseJSONRequest(r *http.Request, v any) error {
	if mediaType := strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0]); mediaType != "application/json" {
		return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"content-type must be application/json", nil)
	}

	body, err := readBody(r)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"failed to parse JSON", err)
	}

	if err := s.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// readBody reads the whole request body, reporting an oversize body as
// FILE_TOO_LARGE
func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeFileTooLarge,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeFileNotReadable,
			"failed to read request body", err)
	}
	if len(body) == 0 {
		return nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"request body is empty", nil)
	}
	return body, nil
}

// validationError turns validator failures into one validation AppError
// listing each offending field
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"invalid request", err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(fields)
	return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
		"invalid request: "+strings.Join(fields, ", "), err)
}

// statusForError maps an error to its HTTP status
func statusForError(err error) int {
	if appErr, ok := resumecraftErrors.AsAppError(err); ok {
		switch appErr.Code {
		case resumecraftErrors.ErrCodeInvalidCredentials:
			return http.StatusUnauthorized
		case resumecraftErrors.ErrCodeAccountUnverified, resumecraftErrors.ErrCodeAdminRequired:
			return http.StatusForbidden
		case resumecraftErrors.ErrCodeFileTooLarge:
			return http.StatusRequestEntityTooLarge
		}
	}

	switch resumecraftErrors.TypeOf(err) {
	case resumecraftErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case resumecraftErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case resumecraftErrors.ErrorTypeConflict, resumecraftErrors.ErrorTypeState:
		return http.StatusConflict
	case resumecraftErrors.ErrorTypeAI:
		return http.StatusBadGateway
	case resumecraftErrors.ErrorTypeNetwork:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err as an ErrorResponse with its mapped status
func (s *Server) writeAppError(w http.ResponseWriter, title string, err error) {
	status := statusForError(err)
	response := ErrorResponse{Error: title, Message: err.Error()}

	if appErr, ok := resumecraftErrors.AsAppError(err); ok {
		response.Code = appErr.Code
		response.Message = appErr.Message
		if len(appErr.Context) > 0 {
			response.Details = maps.Clone(appErr.Context)
		}
	}

	var schemaErr *document.SchemaError
	if errors.As(err, &schemaErr) {
		if response.Details == nil {
			response.Details = map[string]any{}
		}
		response.Details["schema_errors"] = schemaErr.Errors
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, title)
	}
	s.writeJSON(w, status, response)
}

// writeJSON writes v with status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
