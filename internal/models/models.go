package models

import (
	"time"
)

// EmailStatus tracks delivery state of a stored email.
type EmailStatus string

const (
	StatusPending EmailStatus = "PENDING"
	StatusSent    EmailStatus = "SENT"
	StatusFailed  EmailStatus = "FAILED"
)

// Valid reports whether s is one of the known delivery states.
func (s EmailStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// User represents a registered account
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserProfile holds the one-time onboarding answers for a user
type UserProfile struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"user_id"`
	FullName            string    `db:"full_name" json:"full_name"`
	School              string    `db:"school" json:"school"`
	Grade               string    `db:"grade" json:"grade"`
	Major               string    `db:"major" json:"major"`
	OnboardingCompleted bool      `db:"onboarding_completed" json:"onboarding_completed"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Email represents a generated or hand-written email owned by its sender
type Email struct {
	ID        string      `db:"id" json:"id"`
	Subject   string      `db:"subject" json:"subject"`
	Content   string      `db:"content" json:"content"`
	FromEmail string      `db:"from_email" json:"from_email"`
	ToEmail   string      `db:"to_email" json:"to_email"`
	Status    EmailStatus `db:"status" json:"status"`
	SentAt    *time.Time  `db:"sent_at" json:"sent_at"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
