package storage

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sladedevelops/email-microwave/internal/models"
)

// Database provides database operations for the application.
// Every email query is scoped to its owner in SQL, so a wrong-owner
// request can only ever observe "no rows".
type Database struct {
	db *sqlx.DB
}

// NewDatabase wraps an established connection
func NewDatabase(conn *sqlx.DB) *Database {
	return &Database{db: conn}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// User related methods

// CreateUser creates a new user
func (d *Database) CreateUser(user models.User) error {
	_, err := d.db.Exec(`
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)

	return err
}

// GetUserByEmail gets a user by email
func (d *Database) GetUserByEmail(email string) (models.User, error) {
	var user models.User
	err := d.db.Get(&user, "SELECT * FROM users WHERE email = $1", email)
	return user, err
}

// GetUserByID gets a user by ID
func (d *Database) GetUserByID(id string) (models.User, error) {
	var user models.User
	err := d.db.Get(&user, "SELECT * FROM users WHERE id = $1", id)
	return user, err
}

// CountUsersByEmail reports how many users hold the given address
func (d *Database) CountUsersByEmail(email string) (int, error) {
	var cnt int
	err := d.db.Get(&cnt, "SELECT COUNT(*) FROM users WHERE email = $1", email)
	return cnt, err
}

// UpdateUser updates a user's name and email
func (d *Database) UpdateUser(id, name, email string) (models.User, error) {
	var user models.User
	err := d.db.Get(&user, `
		UPDATE users SET name = $2, email = $3, updated_at = $4
		WHERE id = $1
		RETURNING *
	`, id, name, email, time.Now())
	return user, err
}

// Profile related methods

// UpsertProfile creates the onboarding profile for a user, or replaces
// it if the form is resubmitted.
func (d *Database) UpsertProfile(p models.UserProfile) (models.UserProfile, error) {
	var out models.UserProfile
	err := d.db.Get(&out, `
		INSERT INTO user_profiles
			(id, user_id, full_name, school, grade, major, onboarding_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			school = EXCLUDED.school,
			grade = EXCLUDED.grade,
			major = EXCLUDED.major,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = EXCLUDED.updated_at
		RETURNING *
	`, p.ID, p.UserID, p.FullName, p.School, p.Grade, p.Major, p.OnboardingCompleted, time.Now())
	return out, err
}

// GetProfileByUserID gets the onboarding profile for a user
func (d *Database) GetProfileByUserID(userID string) (models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.Get(&p, "SELECT * FROM user_profiles WHERE user_id = $1", userID)
	return p, err
}

// Email related methods

// CreateEmail creates a new email
func (d *Database) CreateEmail(email models.Email) error {
	_, err := d.db.Exec(`
		INSERT INTO emails (id, subject, content, from_email, to_email, status, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, email.ID, email.Subject, email.Content, email.FromEmail, email.ToEmail,
		email.Status, email.SentAt, email.CreatedAt, email.UpdatedAt)

	return err
}

// ListEmailsByOwner returns one page of the owner's emails plus the total count
func (d *Database) ListEmailsByOwner(owner string, page, limit int) ([]models.Email, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	var emails []models.Email
	err := d.db.Select(&emails, `
		SELECT * FROM emails WHERE from_email = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := d.db.Get(&total, "SELECT COUNT(*) FROM emails WHERE from_email = $1", owner); err != nil {
		return nil, 0, err
	}
	return emails, total, nil
}

// GetEmailByIDForOwner gets an email by ID, but only for its owner
func (d *Database) GetEmailByIDForOwner(id, owner string) (models.Email, error) {
	var email models.Email
	err := d.db.Get(&email, "SELECT * FROM emails WHERE id = $1 AND from_email = $2", id, owner)
	return email, err
}

// UpdateEmailStatusForOwner updates delivery status and reports how many
// rows matched; zero means not found or not owned by the caller.
func (d *Database) UpdateEmailStatusForOwner(id, owner string, status models.EmailStatus) (int64, error) {
	now := time.Now()
	var sentAt *time.Time
	if status == models.StatusSent {
		sentAt = &now
	}
	res, err := d.db.Exec(`
		UPDATE emails SET status = $3, sent_at = COALESCE($4, sent_at), updated_at = $5
		WHERE id = $1 AND from_email = $2
	`, id, owner, status, sentAt, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteEmailForOwner deletes an email and reports how many rows matched
func (d *Database) DeleteEmailForOwner(id, owner string) (int64, error) {
	res, err := d.db.Exec("DELETE FROM emails WHERE id = $1 AND from_email = $2", id, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
