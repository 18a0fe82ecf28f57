package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/auth"
	"github.com/sladedevelops/email-microwave/internal/models"
	"github.com/sladedevelops/email-microwave/internal/onboarding"
)

type fakeStore struct {
	users    map[string]models.User // by id
	byEmail  map[string]string      // email -> id
	profiles map[string]models.UserProfile

	profileErr   error
	readbackLag  int // GetUserByID returns ErrNoRows this many times first
	readbackSeen int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		profiles: make(map[string]models.UserProfile),
	}
}

func (f *fakeStore) CountUsersByEmail(email string) (int, error) {
	if _, ok := f.byEmail[email]; ok {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeStore) CreateUser(user models.User) error {
	f.users[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeStore) GetUserByEmail(email string) (models.User, error) {
	id, ok := f.byEmail[email]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return f.users[id], nil
}

func (f *fakeStore) GetUserByID(id string) (models.User, error) {
	if f.readbackSeen < f.readbackLag {
		f.readbackSeen++
		return models.User{}, sql.ErrNoRows
	}
	u, ok := f.users[id]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) UpsertProfile(p models.UserProfile) (models.UserProfile, error) {
	if f.profileErr != nil {
		return models.UserProfile{}, f.profileErr
	}
	f.profiles[p.UserID] = p
	return p, nil
}

func (f *fakeStore) GetProfileByUserID(userID string) (models.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return models.UserProfile{}, sql.ErrNoRows
	}
	return p, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	authSvc, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	checker := onboarding.NewChecker(store.(*fakeStore), zap.NewNop())
	policy := RetryPolicy{Attempts: 3, Interval: time.Millisecond}
	return NewService(store, authSvc, checker, policy, zap.NewNop())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, token, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Register("a@x.com", "another1", "Ann Again")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, store.users, 1)
}

func TestRegister_HashesPassword(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	stored := store.users[user.ID]
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	_, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, _, err = svc.Login("a@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, token, err := svc.Login("a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, token)
}

func TestCompleteOnboarding(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	profile, token, err := svc.CompleteOnboarding(context.Background(), user.ID, ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "Junior",
		Major:    "History",
	})
	require.NoError(t, err)
	assert.True(t, profile.OnboardingCompleted)
	assert.Equal(t, user.ID, profile.UserID)
	assert.NotEmpty(t, token)
}

func TestCompleteOnboarding_InvalidGrade(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	_, _, err = svc.CompleteOnboarding(context.Background(), user.ID, ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "13th grade",
		Major:    "History",
	})
	assert.ErrorIs(t, err, ErrInvalidGrade)
}

func TestCompleteOnboarding_RetriesReadback(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	// user row invisible for the first two reads, visible on the third
	store.readbackLag = 2
	_, _, err = svc.CompleteOnboarding(context.Background(), user.ID, ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "Junior",
		Major:    "History",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, store.readbackSeen)
}

func TestCompleteOnboarding_ReadbackExhausted(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, _, err := svc.Register("a@x.com", "secret1", "Ann")
	require.NoError(t, err)

	store.readbackLag = 10
	_, _, err = svc.CompleteOnboarding(context.Background(), user.ID, ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "Junior",
		Major:    "History",
	})
	assert.Error(t, err)
	assert.Equal(t, 3, store.readbackSeen)
}

func TestSignUp_PartialFailureKeepsIdentity(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	store.profileErr = errors.New("profiles table unavailable")
	user, token, err := svc.SignUp(context.Background(), "a@x.com", "secret1", "Ann", &ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "Junior",
		Major:    "History",
	})
	require.Error(t, err)

	var partial *PartialSignupError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "a@x.com", partial.User.Email)
	assert.NotEmpty(t, partial.Token)
	assert.Equal(t, partial.User, user)
	assert.Equal(t, partial.Token, token)

	// the identity remains usable for login
	logged, _, err := svc.Login("a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, partial.User.ID, logged.ID)
}

func TestSignUp_InvalidGradeCreatesNothing(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, token, err := svc.SignUp(context.Background(), "a@x.com", "secret1", "Ann", &ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "13th grade",
		Major:    "History",
	})
	assert.ErrorIs(t, err, ErrInvalidGrade)

	var partial *PartialSignupError
	assert.False(t, errors.As(err, &partial))
	assert.Empty(t, user.ID)
	assert.Empty(t, token)
	assert.Empty(t, store.users)
	assert.Empty(t, store.profiles)
}

func TestSignUp_WithoutProfile(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, token, err := svc.SignUp(context.Background(), "a@x.com", "secret1", "Ann", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	assert.Empty(t, store.profiles)
}

func TestSignUp_WithProfile(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(t, store)

	user, token, err := svc.SignUp(context.Background(), "a@x.com", "secret1", "Ann", &ProfileInput{
		FullName: "Ann Smith",
		School:   "State University",
		Grade:    "Senior",
		Major:    "Physics",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	p, ok := store.profiles[user.ID]
	require.True(t, ok)
	assert.True(t, p.OnboardingCompleted)
}
