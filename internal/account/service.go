package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credentials are the login and signup inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// TemplateRequest names a profile snapshot to save.
type TemplateRequest struct {
	Name string            `json:"name" validate:"required,min=1,max=100"`
	Data types.ProfileData `json:"data"`
}

// defaultAccounts are installed by Seed when absent
var defaultAccounts = []struct {
	email    string
	password string
	role     Role
	fullName string
}{
	{"admin@app.com", "admin", RoleAdmin, "Admin User"},
	{"client@app.com", "client", RoleClient, "Client User"},
}

// Service implements login, signup, verification and profile storage on
// top of a Repository.
type Service struct {
	repo       Repository
	validate   *validator.Validate
	bcryptCost int
	logger     *resumecraftErrors.Logger

	// serializes read-modify-write cycles on records
	mu sync.Mutex
}

// NewService creates a Service. A bcryptCost of zero uses bcrypt.DefaultCost.
func NewService(repo Repository, bcryptCost int, logger *resumecraftErrors.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &Service{
		repo:       repo,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) checkCredentials(creds Credentials) (Credentials, error) {
	creds.Email = normalizeEmail(creds.Email)
	if err := s.validate.Struct(creds); err != nil {
		return creds, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"invalid email or password", err)
	}
	return creds, nil
}

// Login returns the account when the password matches and the account is
// verified.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	creds, err := s.checkCredentials(Credentials{Email: email, Password: password})
	if err != nil {
		return User{}, err
	}

	record, err := s.get(ctx, creds.Email)
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(creds.Password)); err != nil {
		return User{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidCredentials,
			"email or password is incorrect", ErrInvalidCredentials)
	}
	if !record.Verified {
		return User{}, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeAccountUnverified,
			"account has not been verified", ErrUnverified).WithContext("email", creds.Email)
	}

	s.logger.Info("Account logged in", "email", creds.Email, "role", record.Role)
	return record.Public(), nil
}

// Signup creates an unverified Client account. profile may be nil.
func (s *Service) Signup(ctx context.Context, email, password string, profile *types.ProfileData) (User, error) {
	creds, err := s.checkCredentials(Credentials{Email: email, Password: password})
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Get(ctx, creds.Email); err == nil {
		return User{}, resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeAccountExists,
			"an account with this email already exists", ErrExists).WithContext("email", creds.Email)
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("checking account: %w", err)
	}

	record, err := s.newRecord(creds, RoleClient, false)
	if err != nil {
		return User{}, err
	}
	if profile != nil {
		record.Profile = *profile
	}
	record.Profile.Email = creds.Email

	if err := s.repo.Put(ctx, record); err != nil {
		return User{}, fmt.Errorf("saving account: %w", err)
	}

	s.logger.Info("Account created", "email", creds.Email, "id", record.ID)
	return record.Public(), nil
}

// Verify marks an account as verified.
func (s *Service) Verify(ctx context.Context, email string) (User, error) {
	return s.update(ctx, email, func(r *Record) error {
		r.Verified = true
		return nil
	})
}

// UpdateProfile replaces the stored wizard profile.
func (s *Service) UpdateProfile(ctx context.Context, email string, profile types.ProfileData) (User, error) {
	return s.update(ctx, email, func(r *Record) error {
		r.Profile = profile
		return nil
	})
}

// SaveTemplate stores data under name, replacing any template with the
// same name.
func (s *Service) SaveTemplate(ctx context.Context, email string, req TemplateRequest) (User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return User{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"template name is required", err)
	}

	return s.update(ctx, email, func(r *Record) error {
		for i, t := range r.Templates {
			if t.Name == req.Name {
				updated := make([]TemplateEntry, len(r.Templates))
				copy(updated, r.Templates)
				updated[i].Data = req.Data
				r.Templates = updated
				return nil
			}
		}
		r.Templates = append(r.Templates, TemplateEntry{
			ID:   uuid.NewString(),
			Name: req.Name,
			Data: req.Data,
		})
		return nil
	})
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, email string) (User, error) {
	record, err := s.get(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	return record.Public(), nil
}

// List returns every account, ordered by email. actor must be a verified
// Admin account.
func (s *Service) List(ctx context.Context, actor string) ([]User, error) {
	actor = normalizeEmail(actor)
	admin, err := s.get(ctx, actor)
	if err != nil {
		return nil, err
	}
	if admin.Role != RoleAdmin || !admin.Verified {
		return nil, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeAdminRequired,
			"listing accounts requires a verified admin account", ErrForbidden).WithContext("email", actor)
	}

	emails, err := s.repo.Emails(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(emails))
	for _, email := range emails {
		record, err := s.repo.Get(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("loading account %s: %w", email, err)
		}
		users = append(users, record.Public())
	}

	s.logger.Debug("Listed accounts", "actor", actor, "count", len(users))
	return users, nil
}

// Seed installs the default admin and client accounts when absent. It
// returns the emails it created.
func (s *Service) Seed(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created []string
	for _, def := range defaultAccounts {
		_, err := s.repo.Get(ctx, def.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("checking %s: %w", def.email, err)
		}

		record, err := s.newRecord(Credentials{Email: def.email, Password: def.password}, def.role, true)
		if err != nil {
			return created, err
		}
		record.Profile.FullName = def.fullName
		record.Profile.Email = def.email

		if err := s.repo.Put(ctx, record); err != nil {
			return created, fmt.Errorf("seeding %s: %w", def.email, err)
		}
		created = append(created, def.email)
	}

	if len(created) > 0 {
		s.logger.Info("Seeded default accounts", "emails", created)
	}
	return created, nil
}

func (s *Service) newRecord(creds Credentials, role Role, verified bool) (Record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return Record{}, resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeInvalidRequest,
			"failed to hash password", err)
	}
	return Record{
		ID:           uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: string(hash),
		Role:         role,
		Templates:    []TemplateEntry{},
		Verified:     verified,
	}, nil
}

func (s *Service) get(ctx context.Context, email string) (Record, error) {
	record, err := s.repo.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Record{}, resumecraftErrors.NewNotFoundError(resumecraftErrors.ErrCodeAccountNotFound,
			"no account with this email", ErrNotFound).WithContext("email", email)
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading account: %w", err)
	}
	return record, nil
}

func (s *Service) update(ctx context.Context, email string, mutate func(*Record) error) (User, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.get(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := mutate(&record); err != nil {
		return User{}, err
	}
	if err := s.repo.Put(ctx, record); err != nil {
		return User{}, fmt.Errorf("saving account: %w", err)
	}
	return record.Public(), nil
}
