package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/generator"
	"github.com/sladedevelops/email-microwave/internal/models"
	"github.com/sladedevelops/email-microwave/internal/utils"
)

type GenerateEmailRequest struct {
	RecipientName         string `json:"recipientName" binding:"required"`
	RecipientOrganization string `json:"recipientOrganization" binding:"required"`
	DesiredOutcome        string `json:"desiredOutcome" binding:"required"`
	Tone                  string `json:"tone" binding:"required,oneof=warm formal casual"`
}

/* ================================================================
   EMAIL GENERATION — requires completed onboarding
================================================================ */

func (h *Handlers) GenerateEmail(c *gin.Context) {
	user := currentUser(c)

	var in GenerateEmailRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	draft, err := h.generator.Generate(c.Request.Context(), generator.Request{
		RecipientName:         in.RecipientName,
		RecipientOrganization: in.RecipientOrganization,
		DesiredOutcome:        in.DesiredOutcome,
		Tone:                  in.Tone,
	})
	if err != nil {
		h.log.Error("email generation failed", zap.Error(err))
		respondError(c, 500, "Failed to generate email")
		return
	}

	// persistence is best-effort; a save failure never fails the request
	now := time.Now()
	saved := models.Email{
		ID:        uuid.New().String(),
		Subject:   draft.Subject,
		Content:   draft.Content,
		FromEmail: user.Email,
		ToEmail:   utils.DeriveRecipientAddress(in.RecipientName, in.RecipientOrganization),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateEmail(saved); err != nil {
		h.log.Warn("saving generated email failed", zap.Error(err))
	}

	respond(c, 200, gin.H{"subject": draft.Subject, "content": draft.Content}, "")
}
