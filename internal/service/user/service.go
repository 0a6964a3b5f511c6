package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/email"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid email, password or role")

// RegistrationPolicy reports whether patients may self-register.
type RegistrationPolicy interface {
	RegistrationsOpen(ctx context.Context) (bool, error)
}

type Service struct {
	repo     repository.UserRepository
	hasher   security.PasswordHasher
	emailSvc email.Service
	policy   RegistrationPolicy
	ids      idgen.Provider
	logger   *logger.Logger
	now      func() time.Time

	mu        sync.RWMutex
	observers []func()
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, emailSvc email.Service, policy RegistrationPolicy, ids idgen.Provider, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		emailSvc: emailSvc,
		policy:   policy,
		ids:      ids,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnDirectoryChange registers fn to run after every successful mutation.
func (s *Service) OnDirectoryChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Service) changed() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fn := range s.observers {
		fn()
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	doctors := make([]*model.User, 0, len(users))
	for _, u := range users {
		if u.Role == model.RoleDoctor {
			doctors = append(doctors, u)
		}
	}
	return doctors, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateUser adds a directory entry on behalf of an administrator.
func (s *Service) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.NewValidation("role", "role must be one of [PATIENT DOCTOR ADMIN]")
	}
	status := req.Status
	if status == "" {
		status = model.UserStatusActive
	}

	u := &model.User{
		ID:              s.newUserID(req.Role),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Role:            req.Role,
		Status:          status,
		Avatar:          avatarURL(req.Name),
		Age:             req.Age,
		Gender:          req.Gender,
		Phone:           req.Phone,
		Clinic:          req.Clinic,
		STRNumber:       req.STRNumber,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
	}
	if err := s.create(ctx, u, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// RegisterPatient is patient self-signup.
func (s *Service) RegisterPatient(ctx context.Context, req model.RegisterPatientRequest) (*model.User, error) {
	if s.policy != nil {
		open, err := s.policy.RegistrationsOpen(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read registration policy: %w", err)
		}
		if !open {
			return nil, apperrors.NewForbidden("new registrations are currently disabled")
		}
	}
	if err := security.CheckPolicy(req.Password); err != nil {
		return nil, apperrors.NewValidation("password", err.Error())
	}

	u := &model.User{
		ID:     s.newUserID(model.RolePatient),
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Role:   model.RolePatient,
		Status: model.UserStatusActive,
		Avatar: avatarURL(req.Name),
	}
	if err := s.create(ctx, u, req.Password); err != nil {
		return nil, err
	}

	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, u.Email, u.Name); err != nil {
			s.logger.Error(err, "failed to send welcome email", "user_id", u.ID)
		}
	}
	s.logger.Info("patient registered", "user_id", u.ID)
	return u, nil
}

func (s *Service) create(ctx context.Context, u *model.User, password string) error {
	if _, err := s.repo.GetByEmail(ctx, u.Email); err == nil {
		return apperrors.NewConflict("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewConflict("Email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	s.changed()
	return nil
}

// UpdateUser applies the non-nil fields of req.
func (s *Service) UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && !u.EmailMatches(*req.Email) {
		other, err := s.repo.GetByEmail(ctx, *req.Email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, apperrors.NewConflict("Email already registered")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	setString(&u.Name, req.Name)
	setString(&u.Gender, req.Gender)
	setString(&u.Phone, req.Phone)
	setString(&u.Clinic, req.Clinic)
	setString(&u.STRNumber, req.STRNumber)
	setString(&u.Specialization, req.Specialization)
	if req.Status != nil {
		u.Status = *req.Status
	}
	if req.Age != nil {
		u.Age = req.Age
	}
	if req.ExperienceYears != nil {
		u.ExperienceYears = req.ExperienceYears
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.changed()
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", err)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.changed()
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// Login matches e-mail case-insensitively, role exactly, and the password
// against the stored hash.
func (s *Service) Login(ctx context.Context, emailAddr, password string, role model.UserRole) (*model.User, error) {
	u, err := s.repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u.Role != role {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	return u, nil
}

func (s *Service) newUserID(role model.UserRole) string {
	prefix := "A"
	switch role {
	case model.RolePatient:
		prefix = "P"
	case model.RoleDoctor:
		prefix = "D"
	}
	return s.ids.NewID(fmt.Sprintf("%s-%d", prefix, s.now().Year()))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(strings.TrimSpace(name)) + "&background=random"
}
