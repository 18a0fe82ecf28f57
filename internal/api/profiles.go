package api

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/account"
	"github.com/sladedevelops/email-microwave/internal/onboarding"
)

type ProfileRequest struct {
	FullName string `json:"fullName" binding:"required"`
	School   string `json:"school" binding:"required"`
	Grade    string `json:"grade" binding:"required"`
	Major    string `json:"major" binding:"required"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty,min=2"`
	Email string `json:"email" binding:"omitempty,email"`
}

/* ================================================================
   ONBOARDING & USER PROFILE
================================================================ */

func (h *Handlers) OnboardingStatus(c *gin.Context) {
	user := currentUser(c)
	status := h.onboarding.Resolve(user.ID, onboardingClaim(c))
	respond(c, 200, gin.H{"completed": status == onboarding.StatusComplete}, "")
}

// CreateProfile stores the onboarding answers and hands back a
// refreshed token carrying the completion claim.
func (h *Handlers) CreateProfile(c *gin.Context) {
	user := currentUser(c)

	var in ProfileRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	profile, token, err := h.accounts.CompleteOnboarding(c.Request.Context(), user.ID, account.ProfileInput{
		FullName: in.FullName,
		School:   in.School,
		Grade:    in.Grade,
		Major:    in.Major,
	})
	if err != nil {
		if errors.Is(err, account.ErrInvalidGrade) {
			respondError(c, 400, "Invalid grade")
			return
		}
		h.log.Error("create profile failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 201, gin.H{"profile": profile, "token": token}, "Onboarding completed successfully")
}

func (h *Handlers) GetMe(c *gin.Context) {
	user := currentUser(c)

	data := gin.H{"user": user}
	profile, err := h.store.GetProfileByUserID(user.ID)
	if err == nil {
		data["profile"] = profile
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.log.Warn("profile lookup failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	respond(c, 200, data, "")
}

func (h *Handlers) UpdateMe(c *gin.Context) {
	user := currentUser(c)

	var in UpdateUserRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	name := user.Name
	if in.Name != "" {
		name = in.Name
	}
	email := user.Email
	if in.Email != "" && in.Email != user.Email {
		cnt, err := h.store.CountUsersByEmail(in.Email)
		if err != nil {
			h.log.Error("email lookup failed", zap.Error(err))
			respondError(c, 500, "Server error")
			return
		}
		if cnt > 0 {
			respondError(c, 400, "Email already in use")
			return
		}
		email = in.Email
	}

	updated, err := h.store.UpdateUser(user.ID, name, email)
	if err != nil {
		h.log.Error("update user failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 200, gin.H{"user": updated}, "Profile updated successfully")
}
