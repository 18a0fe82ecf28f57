package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter wires every HTTP endpoint. Auth routes sit behind a
// per-IP rate limiter; everything else requires a bearer token, and
// generation additionally requires completed onboarding.
func SetupRouter(h *Handlers, log *zap.Logger, authRateLimit int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.Use(gin.Recovery())

	/* ---------- public endpoints ---------- */
	authGroup := r.Group("/api/auth")
	authGroup.Use(NewRateLimiter(authRateLimit).Handler())
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/signout", h.SignOut)
	}

	/* ---------- protected endpoints ---------- */
	api := r.Group("/api")
	api.Use(h.AuthRequired())
	{
		api.GET("/onboarding/status", h.OnboardingStatus)
		api.POST("/user-profile", h.CreateProfile)

		api.GET("/users/me", h.GetMe)
		api.PUT("/users/me", h.UpdateMe)

		api.POST("/emails", h.CreateEmail)
		api.GET("/emails", h.ListEmails)
		api.GET("/emails/:id", h.GetEmail)
		api.PATCH("/emails/:id/status", h.UpdateEmailStatus)
		api.DELETE("/emails/:id", h.DeleteEmail)
		api.POST("/emails/:id/send", h.SendEmail)

		/* ----- gated behind onboarding ----- */
		gated := api.Group("")
		gated.Use(h.OnboardingRequired())
		{
			gated.POST("/generate-email", h.GenerateEmail)
		}
	}

	return r
}
