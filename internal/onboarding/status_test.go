package onboarding

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/models"
)

type fakeProfileStore struct {
	profile models.UserProfile
	err     error
	calls   int
}

func (f *fakeProfileStore) GetProfileByUserID(userID string) (models.UserProfile, error) {
	f.calls++
	return f.profile, f.err
}

func TestResolve_FastPathSkipsStore(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusUnknown, c.Status("u1"))
	assert.Equal(t, StatusComplete, c.Resolve("u1", true))
	assert.Equal(t, 0, store.calls)
}

func TestResolve_NotFoundMeansIncomplete(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusIncomplete, c.Resolve("u1", false))
	assert.Equal(t, 1, store.calls)
}

func TestResolve_StoreErrorFailsClosed(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: errors.New("connection reset")}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusIncomplete, c.Resolve("u1", false))
}

func TestResolve_CompletedProfile(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{profile: models.UserProfile{OnboardingCompleted: true}}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusComplete, c.Resolve("u1", false))
}

func TestResolve_IncompleteProfileRow(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{profile: models.UserProfile{OnboardingCompleted: false}}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusIncomplete, c.Resolve("u1", false))
}

func TestCompleteNeverRegresses(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())

	c.MarkComplete("u1")
	assert.Equal(t, StatusComplete, c.Status("u1"))

	// the store would now report "no profile", but the session stays complete
	assert.Equal(t, StatusComplete, c.Resolve("u1", false))
	assert.Equal(t, 0, store.calls)
}

func TestIncompleteCanBecomeComplete(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())

	assert.Equal(t, StatusIncomplete, c.Resolve("u1", false))

	store.err = nil
	store.profile = models.UserProfile{OnboardingCompleted: true}
	assert.Equal(t, StatusComplete, c.Resolve("u1", false))
}

func TestIdleSessionsAreSwept(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())
	c.window = time.Minute

	c.MarkComplete("stale")
	c.sessions["stale"].lastSeen = time.Now().Add(-2 * time.Minute)

	// adding a new session triggers the sweep
	c.MarkComplete("fresh")
	assert.NotContains(t, c.sessions, "stale")
	assert.Contains(t, c.sessions, "fresh")

	// the evicted session re-resolves from the store on its next request
	assert.Equal(t, StatusIncomplete, c.Resolve("stale", false))
	assert.Equal(t, 1, store.calls)
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()
	store := &fakeProfileStore{err: sql.ErrNoRows}
	c := NewChecker(store, zap.NewNop())

	c.MarkComplete("u1")
	assert.Equal(t, StatusComplete, c.Status("u1"))
	assert.Equal(t, StatusUnknown, c.Status("u2"))
}
