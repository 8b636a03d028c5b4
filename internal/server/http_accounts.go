package server

import (
	"net/http"
	"strings"

	"resumecraft/internal/account"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/observability"
	"resumecraft/internal/types"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
)

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.signup")
	defer span.End()

	var req SignupRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	user, err := s.Deps.Accounts.Signup(ctx, req.Email, req.Password, req.Profile)
	s.om.GetMetrics().RecordBusinessMetric(ctx, observability.MetricAccountCreated, err == nil, s.om)
	if err != nil {
		s.fail(w, span, "Signup failed", err)
		return
	}

	span.SetAttributes(attribute.String("account.id", user.ID), attribute.Bool("success", true))
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.login")
	defer span.End()

	var req LoginRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	user, err := s.Deps.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.fail(w, span, "Login failed", err)
		return
	}

	span.SetAttributes(attribute.String("account.role", string(user.Role)), attribute.Bool("success", true))
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.verify")
	defer span.End()

	var req VerifyRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	user, err := s.Deps.Accounts.Verify(ctx, req.Email)
	if err != nil {
		s.fail(w, span, "Verification failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// accountHeader names the account a request acts as
const accountHeader = "X-Account-Email"

// listAccountsHandler lists every account for an admin caller
func (s *Server) listAccountsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.list")
	defer span.End()

	actor := strings.TrimSpace(r.Header.Get(accountHeader))
	if actor == "" {
		s.fail(w, span, "Missing account", resumecraftErrors.NewValidationError(
			resumecraftErrors.ErrCodeInvalidRequest, accountHeader+" header is required", nil))
		return
	}

	users, err := s.Deps.Accounts.List(ctx, actor)
	if err != nil {
		s.fail(w, span, "Failed to list accounts", err)
		return
	}

	span.SetAttributes(attribute.Int("account.count", len(users)), attribute.Bool("success", true))
	s.writeJSON(w, http.StatusOK, map[string][]account.User{"accounts": users})
}

func (s *Server) getAccountHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.get")
	defer span.End()

	user, err := s.Deps.Accounts.Get(ctx, chi.URLParam(r, "email"))
	if err != nil {
		s.fail(w, span, "Account not found", err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// updateProfileHandler replaces the account's wizard profile
func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.update_profile")
	defer span.End()

	var profile types.ProfileData
	if err := s.parseJSONRequest(r, &profile); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	user, err := s.Deps.Accounts.UpdateProfile(ctx, chi.URLParam(r, "email"), profile)
	if err != nil {
		s.fail(w, span, "Failed to update profile", err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// saveTemplateHandler upserts a named profile template
func (s *Server) saveTemplateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.accounts.save_template")
	defer span.End()

	var req account.TemplateRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}

	user, err := s.Deps.Accounts.SaveTemplate(ctx, chi.URLParam(r, "email"), req)
	if err != nil {
		s.fail(w, span, "Failed to save template", err)
		return
	}

	span.SetAttributes(attribute.Int("account.templates", len(user.Templates)))
	s.writeJSON(w, http.StatusOK, user)
}
