package api

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/models"
)

type CreateEmailRequest struct {
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"`
	ToEmail string `json:"toEmail" binding:"required,email"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

/* ================================================================
   EMAIL OPERATIONS — every query is scoped to the caller's address
================================================================ */

func (h *Handlers) CreateEmail(c *gin.Context) {
	user := currentUser(c)

	var in CreateEmailRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	now := time.Now()
	email := models.Email{
		ID:        uuid.New().String(),
		Subject:   in.Subject,
		Content:   in.Content,
		FromEmail: user.Email,
		ToEmail:   in.ToEmail,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateEmail(email); err != nil {
		h.log.Error("create email failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	respond(c, 201, email, "Email created successfully")
}

func (h *Handlers) ListEmails(c *gin.Context) {
	user := currentUser(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	emails, total, err := h.store.ListEmailsByOwner(user.Email, page, limit)
	if err != nil {
		h.log.Error("list emails failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}
	if emails == nil {
		emails = []models.Email{}
	}

	totalPages := (total + limit - 1) / limit
	respond(c, 200, gin.H{
		"emails": emails,
		"pagination": Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, "")
}

func (h *Handlers) GetEmail(c *gin.Context) {
	user := currentUser(c)

	email, err := h.store.GetEmailByIDForOwner(c.Param("id"), user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(c, 404, "Email not found")
		return
	}
	if err != nil {
		h.log.Error("get email failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}
	respond(c, 200, email, "")
}

func (h *Handlers) UpdateEmailStatus(c *gin.Context) {
	user := currentUser(c)

	var in UpdateStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, 400, bindingMessage(err))
		return
	}

	status := models.EmailStatus(in.Status)
	if !status.Valid() {
		respondError(c, 400, "Invalid status")
		return
	}

	rows, err := h.store.UpdateEmailStatusForOwner(c.Param("id"), user.Email, status)
	if err != nil {
		h.log.Error("update email status failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}
	if rows == 0 {
		respondError(c, 404, "Email not found")
		return
	}
	respond(c, 200, gin.H{}, "Email status updated successfully")
}

func (h *Handlers) DeleteEmail(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.store.DeleteEmailForOwner(c.Param("id"), user.Email)
	if err != nil {
		h.log.Error("delete email failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}
	if rows == 0 {
		respondError(c, 404, "Email not found")
		return
	}
	respond(c, 200, gin.H{}, "Email deleted successfully")
}

// SendEmail attempts delivery of a stored email and records the outcome.
func (h *Handlers) SendEmail(c *gin.Context) {
	user := currentUser(c)

	email, err := h.store.GetEmailByIDForOwner(c.Param("id"), user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(c, 404, "Email not found")
		return
	}
	if err != nil {
		h.log.Error("get email failed", zap.Error(err))
		respondError(c, 500, "Server error")
		return
	}

	if err := h.mailer.Send(email); err != nil {
		h.log.Error("email delivery failed",
			zap.String("email_id", email.ID), zap.Error(err))
		if _, serr := h.store.UpdateEmailStatusForOwner(email.ID, user.Email, models.StatusFailed); serr != nil {
			h.log.Error("mark failed status", zap.Error(serr))
		}
		respondError(c, 500, "Failed to send email")
		return
	}

	if _, err := h.store.UpdateEmailStatusForOwner(email.ID, user.Email, models.StatusSent); err != nil {
		h.log.Error("mark sent status", zap.Error(err))
	}
	respond(c, 200, gin.H{}, "Email sent successfully")
}
