package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Regera24/AstraMindProject/internal/config"
	"github.com/Regera24/AstraMindProject/internal/http/handler"
	httpmiddleware "github.com/Regera24/AstraMindProject/internal/http/middleware"
	"github.com/Regera24/AstraMindProject/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, authMiddleware *httpmiddleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.POST("/introspect", authHandler.Introspect)
		auth.POST("/outbound/authentication", authHandler.OutboundAuthenticate)

		auth.GET("/send-otp", authHandler.SendOTP)
		auth.POST("/check-otp", authHandler.CheckOTP)
		auth.POST("/change-password", authHandler.ChangePassword)

		auth.GET("/check-username", authHandler.CheckUsername)
		auth.POST("/check-unique", authHandler.CheckUnique)

		auth.GET("/me", authMiddleware.RequireAuth, authHandler.Me)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
