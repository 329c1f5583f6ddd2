package users

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 4
	maxPasswordBytes  = 72 // bcrypt input limit
)

// Service implements account business rules
type Service struct {
	repo     *Repository
	activity domain.ActivityRecorder
	events   domain.EventEmitter
	hashCost int
	log      zerolog.Logger
}

// NewService creates a users service. activity and emitter may be nil.
func NewService(repo *Repository, activity domain.ActivityRecorder, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		activity: activity,
		events:   emitter,
		hashCost: bcrypt.DefaultCost,
		log:      log.With().Str("service", "users").Logger(),
	}
}

// Register creates a farmer or consumer account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	if !req.Role.SelfRegistrable() {
		return nil, fmt.Errorf("%w: role %q cannot be registered", ErrInvalidInput, req.Role)
	}

	u, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.record(ctx, u.ID, fmt.Sprintf("Registered as %s", u.Role))
	if s.events != nil {
		s.events.EmitTyped("users", &events.UserRegisteredData{UserID: u.ID, Username: u.Username, Role: string(u.Role)})
	}
	s.log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("User registered")
	return u, nil
}

// Login verifies credentials
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.record(ctx, u.ID, "Logged in")
	return u, nil
}

// Logout records the logout in the activity log
func (s *Service) Logout(ctx context.Context, userID int64) {
	s.record(ctx, userID, "Logged out")
}

// EnsureAdmin creates the admin account unless the username already exists.
// It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, phone, password string) (bool, error) {
	req := RegisterRequest{Username: username, Phone: phone, Password: password, Role: domain.RoleAdmin}
	if err := validateRegistration(req); err != nil {
		return false, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	u, err := s.create(ctx, req)
	if err != nil {
		return false, err
	}
	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("Admin account created")
	return true, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every user
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) create(ctx context.Context, req RegisterRequest) (*User, error) {
	exists, err := s.repo.Exists(ctx, req.Username, req.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Username:     req.Username,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) record(ctx context.Context, userID int64, action string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, userID, action); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to record activity")
	}
}

func validateRegistration(req RegisterRequest) error {
	switch {
	case req.Username == "" || req.Phone == "" || req.Password == "":
		return fmt.Errorf("%w: username, phone and password are required", ErrInvalidInput)
	case utf8.RuneCountInString(req.Password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case len(req.Password) > maxPasswordBytes:
		return fmt.Errorf("%w: password is too long", ErrInvalidInput)
	case !req.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	return nil
}
