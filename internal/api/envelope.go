package api

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Envelope is the uniform response shape for every route.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: false, Error: msg})
}

// bindingMessage turns a binding failure into the first violated
// field's message, mirroring the original per-field validation text.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		if fe.Field() == "ToEmail" {
			return "Invalid recipient email"
		}
		return "Invalid email address"
	case "min":
		switch fe.Field() {
		case "Password":
			return "Password must be at least 6 characters"
		case "Name":
			return "Name must be at least 2 characters"
		}
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return "Invalid " + fe.Field()
	}
	return fe.Field() + " is invalid"
}
