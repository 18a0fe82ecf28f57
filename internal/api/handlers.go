package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/account"
	"github.com/sladedevelops/email-microwave/internal/auth"
	"github.com/sladedevelops/email-microwave/internal/generator"
	"github.com/sladedevelops/email-microwave/internal/models"
	"github.com/sladedevelops/email-microwave/internal/onboarding"
)

/* ----------------------------------------------------------------
   Collaborator interfaces — handlers depend on these, not on the
   concrete store/clients, so tests can swap in fakes
-----------------------------------------------------------------*/

type Store interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	CountUsersByEmail(email string) (int, error)
	UpdateUser(id, name, email string) (models.User, error)
	GetProfileByUserID(userID string) (models.UserProfile, error)
	CreateEmail(email models.Email) error
	ListEmailsByOwner(owner string, page, limit int) ([]models.Email, int, error)
	GetEmailByIDForOwner(id, owner string) (models.Email, error)
	UpdateEmailStatusForOwner(id, owner string, status models.EmailStatus) (int64, error)
	DeleteEmailForOwner(id, owner string) (int64, error)
}

type Generator interface {
	Generate(ctx context.Context, req generator.Request) (generator.Draft, error)
}

type Sender interface {
	Send(email models.Email) error
}

// Handlers carries every dependency the routes need.
type Handlers struct {
	store      Store
	accounts   *account.Service
	auth       *auth.Service
	onboarding *onboarding.Checker
	generator  Generator
	mailer     Sender
	log        *zap.Logger
}

func NewHandlers(
	store Store,
	accounts *account.Service,
	authSvc *auth.Service,
	checker *onboarding.Checker,
	gen Generator,
	mailer Sender,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		store:      store,
		accounts:   accounts,
		auth:       authSvc,
		onboarding: checker,
		generator:  gen,
		mailer:     mailer,
		log:        log,
	}
}

/* ----------------------------------------------------------------
   DTO types
-----------------------------------------------------------------*/

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,min=2"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,min=2"`

	// optional inline onboarding profile
	FullName string `json:"fullName"`
	School   string `json:"school"`
	Grade    string `json:"grade"`
	Major    string `json:"major"`
}

/* ================================================================
   USER AUTHENTICATION
================================================================ */

func (h *Handlers) Register(c *gin.Context) {
	var in RegisterRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	user, token, err := h.accounts.Register(in.Email, in.Password, in.Name)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			respondError(c, 400, "User already exists")
			return
		}
		h.log.Error("register failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 201, gin.H{"user": user, "token": token}, "User registered successfully")
}

func (h *Handlers) Login(c *gin.Context) {
	var in LoginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	user, token, err := h.accounts.Login(in.Email, in.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			respondError(c, 401, "Invalid credentials")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 200, gin.H{"user": user, "token": token}, "Login successful")
}

// SignUp creates the identity and, when the onboarding fields are
// present, the profile in the same call. A profile failure after the
// identity exists is reported as partial completion; the identity is
// kept and stays usable for login.
func (h *Handlers) SignUp(c *gin.Context) {
	var in SignUpRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	var profile *account.ProfileInput
	if in.FullName != "" || in.School != "" || in.Grade != "" || in.Major != "" {
		profile = &account.ProfileInput{
			FullName: in.FullName,
			School:   in.School,
			Grade:    in.Grade,
			Major:    in.Major,
		}
	}

	user, token, err := h.accounts.SignUp(c.Request.Context(), in.Email, in.Password, in.Name, profile)
	if err != nil {
		if errors.Is(err, account.ErrInvalidGrade) {
			respondError(c, 400, "Invalid grade")
			return
		}
		if errors.Is(err, account.ErrEmailTaken) {
			respondError(c, 400, "User already exists")
			return
		}
		var partial *account.PartialSignupError
		if errors.As(err, &partial) {
			c.JSON(500, Envelope{
				Success: false,
				Error:   "Failed to create profile",
				Message: "Account created but profile setup failed. Sign in and complete onboarding.",
				Data:    gin.H{"user": partial.User, "token": partial.Token},
			})
			return
		}
		h.log.Error("signup failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 201, gin.H{"user": user, "token": token}, "Account created and signed in successfully!")
}

// SignOut exists for API symmetry; tokens are stateless, so the client
// simply discards its copy.
func (h *Handlers) SignOut(c *gin.Context) {
	respond(c, 200, nil, "Signed out successfully")
}
