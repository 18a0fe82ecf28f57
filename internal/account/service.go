package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/auth"
	"github.com/sladedevelops/email-microwave/internal/models"
	"github.com/sladedevelops/email-microwave/internal/onboarding"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidGrade       = errors.New("invalid grade")
)

var validGrades = map[string]bool{
	"Freshman":  true,
	"Sophomore": true,
	"Junior":    true,
	"Senior":    true,
	"Graduate":  true,
}

// Store is the slice of the database the account service needs.
type Store interface {
	CountUsersByEmail(email string) (int, error)
	CreateUser(user models.User) error
	GetUserByEmail(email string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	UpsertProfile(p models.UserProfile) (models.UserProfile, error)
}

// RetryPolicy bounds the readback between identity creation and the
// profile insert. The row is normally visible immediately; the policy
// exists for deployments that read from a lagging replica.
type RetryPolicy struct {
	Attempts uint64
	Interval time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Interval: 500 * time.Millisecond}

// ProfileInput is the onboarding form payload.
type ProfileInput struct {
	FullName string
	School   string
	Grade    string
	Major    string
}

// PartialSignupError reports a signup whose identity was created but
// whose profile insert failed. The identity is kept and stays usable
// for login; callers surface the partial completion to the user.
type PartialSignupError struct {
	User  models.User
	Token string
	Err   error
}

func (e *PartialSignupError) Error() string {
	return fmt.Sprintf("account created but profile setup failed: %v", e.Err)
}

func (e *PartialSignupError) Unwrap() error { return e.Err }

// Service implements registration, login and the onboarding handshake.
type Service struct {
	store      Store
	auth       *auth.Service
	onboarding *onboarding.Checker
	retry      RetryPolicy
	log        *zap.Logger
}

func NewService(store Store, authSvc *auth.Service, checker *onboarding.Checker, policy RetryPolicy, log *zap.Logger) *Service {
	if policy.Attempts == 0 {
		policy = DefaultRetryPolicy
	}
	return &Service{
		store:      store,
		auth:       authSvc,
		onboarding: checker,
		retry:      policy,
		log:        log,
	}
}

// Register creates a user and issues a session token.
func (s *Service) Register(email, password, name string) (models.User, string, error) {
	cnt, err := s.store.CountUsersByEmail(email)
	if err != nil {
		return models.User{}, "", fmt.Errorf("check existing user: %w", err)
	}
	if cnt > 0 {
		return models.User{}, "", ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(user); err != nil {
		return models.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.auth.GenerateToken(user.ID, false)
	if err != nil {
		return models.User{}, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and issues a session token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(email, password string) (models.User, string, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err := s.auth.CheckPassword(password, user.PasswordHash); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	completed := s.onboarding.Status(user.ID) == onboarding.StatusComplete
	token, err := s.auth.GenerateToken(user.ID, completed)
	if err != nil {
		return models.User{}, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// SignUp creates the identity and, when profile fields are supplied,
// completes onboarding in the same call. The profile is validated
// before phase one so a bad grade never creates an identity. A
// phase-two failure is reported as a PartialSignupError; the identity
// is not rolled back.
func (s *Service) SignUp(ctx context.Context, email, password, name string, profile *ProfileInput) (models.User, string, error) {
	if profile != nil && !validGrades[profile.Grade] {
		return models.User{}, "", ErrInvalidGrade
	}

	user, token, err := s.Register(email, password, name)
	if err != nil {
		return models.User{}, "", err
	}
	if profile == nil {
		return user, token, nil
	}

	_, refreshed, err := s.CompleteOnboarding(ctx, user.ID, *profile)
	if err != nil {
		s.log.Error("signup profile setup failed",
			zap.String("user_id", user.ID), zap.Error(err))
		return user, token, &PartialSignupError{User: user, Token: token, Err: err}
	}
	return user, refreshed, nil
}

// CompleteOnboarding validates and stores the onboarding profile, then
// issues a refreshed token carrying the onboarding claim.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string, in ProfileInput) (models.UserProfile, string, error) {
	if !validGrades[in.Grade] {
		return models.UserProfile{}, "", ErrInvalidGrade
	}

	if err := s.awaitUser(ctx, userID); err != nil {
		return models.UserProfile{}, "", err
	}

	now := time.Now()
	profile, err := s.store.UpsertProfile(models.UserProfile{
		ID:                  uuid.New().String(),
		UserID:              userID,
		FullName:            in.FullName,
		School:              in.School,
		Grade:               in.Grade,
		Major:               in.Major,
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		return models.UserProfile{}, "", fmt.Errorf("create profile: %w", err)
	}

	s.onboarding.MarkComplete(userID)

	token, err := s.auth.GenerateToken(userID, true)
	if err != nil {
		return models.UserProfile{}, "", fmt.Errorf("generate token: %w", err)
	}
	return profile, token, nil
}

// awaitUser waits for the freshly created user row to be readable,
// bounded by the retry policy.
func (s *Service) awaitUser(ctx context.Context, userID string) error {
	backoff := retry.WithMaxRetries(s.retry.Attempts-1, retry.NewConstant(s.retry.Interval))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.store.GetUserByID(userID)
		if errors.Is(err, sql.ErrNoRows) {
			return retry.RetryableError(fmt.Errorf("user %s not yet visible", userID))
		}
		return err
	})
}
