package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/talentbase-backend/config"
	"github.com/ikkim/talentbase-backend/internal/app/controller"
	"github.com/ikkim/talentbase-backend/internal/middleware"
)

type Router struct {
	authController *controller.AuthController
	authMiddleware *middleware.AuthMiddleware
	config         *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController: authController,
		authMiddleware: authMiddleware,
		config:         cfg,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	gin.SetMode(r.config.Server.GinMode)

	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "TalentBase API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			anonymous := auth.Group("",
				r.authMiddleware.OptionalAuthenticate(),
				middleware.RedirectIfAuthenticated(),
			)
			anonymous.POST("/register", r.authController.Register)
			anonymous.POST("/login", r.authController.Login)

			auth.POST("/verify", r.authController.Verify)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.GET("/reset-password", r.authController.ValidateResetToken)
			auth.POST("/reset-password", r.authController.ResetPassword)

			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		me := v1.Group("/me")
		me.Use(r.authMiddleware.Authenticate())
		{
			me.GET("/capabilities", r.authController.Capabilities)
			me.GET("/capabilities/post_jobs",
				middleware.RequireCapability(middleware.CapabilityPostJobs),
				r.authController.CapabilityGranted(middleware.CapabilityPostJobs),
			)
			me.GET("/capabilities/apply_jobs",
				middleware.RequireCapability(middleware.CapabilityApplyJobs),
				r.authController.CapabilityGranted(middleware.CapabilityApplyJobs),
			)
		}
	}

	return router, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
