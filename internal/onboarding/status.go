package onboarding

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/models"
)

// Status is the onboarding state of an authenticated session.
type Status string

const (
	StatusUnknown    Status = "UNKNOWN"
	StatusChecking   Status = "CHECKING"
	StatusComplete   Status = "COMPLETE"
	StatusIncomplete Status = "INCOMPLETE"
)

// ProfileStore is the slice of the store the checker needs.
type ProfileStore interface {
	GetProfileByUserID(userID string) (models.UserProfile, error)
}

// sessionWindow bounds how long an idle session entry is cached before
// it is swept. An evicted session simply re-resolves on its next
// request, from the token claim or the profile row.
const sessionWindow = time.Hour

// Checker resolves whether a session may use the generation feature.
//
// Fast path: a token whose onboarding claim is set resolves to COMPLETE
// without a store round trip. Slow path: the profile row is consulted;
// "no rows" means a new user. Any other store error fails closed toward
// re-onboarding, never toward granting access. Once a session reaches
// COMPLETE it is never regressed while cached.
type Checker struct {
	store  ProfileStore
	log    *zap.Logger
	window time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	status   Status
	lastSeen time.Time
}

func NewChecker(store ProfileStore, log *zap.Logger) *Checker {
	return &Checker{
		store:    store,
		log:      log,
		window:   sessionWindow,
		sessions: make(map[string]*session),
	}
}

// Status returns the session's current state without resolving it.
func (c *Checker) Status(userID string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[userID]; ok {
		s.lastSeen = time.Now()
		return s.status
	}
	return StatusUnknown
}

// Resolve drives the session through UNKNOWN -> CHECKING -> {COMPLETE, INCOMPLETE}.
func (c *Checker) Resolve(userID string, claimComplete bool) Status {
	if st := c.transition(userID, StatusChecking); st == StatusComplete {
		return StatusComplete
	}

	if claimComplete {
		return c.transition(userID, StatusComplete)
	}

	profile, err := c.store.GetProfileByUserID(userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.log.Warn("onboarding status lookup failed",
				zap.String("user_id", userID), zap.Error(err))
		}
		return c.transition(userID, StatusIncomplete)
	}

	if profile.OnboardingCompleted {
		return c.transition(userID, StatusComplete)
	}
	return c.transition(userID, StatusIncomplete)
}

// MarkComplete records a successful onboarding submission.
func (c *Checker) MarkComplete(userID string) {
	c.transition(userID, StatusComplete)
}

// transition applies the requested state change and returns the
// resulting state. COMPLETE is terminal.
func (c *Checker) transition(userID string, to Status) Status {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[userID]; ok {
		s.lastSeen = now
		if s.status == StatusComplete {
			return StatusComplete
		}
		s.status = to
		return to
	}

	c.sweepLocked(now)
	c.sessions[userID] = &session{status: to, lastSeen: now}
	return to
}

// sweepLocked drops sessions idle past the window. Callers hold mu.
func (c *Checker) sweepLocked(now time.Time) {
	for id, s := range c.sessions {
		if now.Sub(s.lastSeen) > c.window {
			delete(c.sessions, id)
		}
	}
}
