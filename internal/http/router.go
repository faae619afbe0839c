package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"overseas-housing/internal/service"
)

// HealthCheck verifica dependencias externas (p. ej. la base de datos).
type HealthCheck func(ctx context.Context) error

// NewRouter configura el router de Gin con middlewares y rutas de la API.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	authH *AuthHandler,
	userH *UserHandler,
	convH *ConversationHandler,
	socketH *SocketHandler,
	health HealthCheck,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Overseas Housing API is running"})
	})
	r.GET("/healthz", healthHandler(health))

	// El websocket autentica por su cuenta: el token puede venir en la query.
	r.GET("/api/ws", socketH.Handle)

	api := r.Group("/api")
	api.Use(jsonContentTypeMiddleware())

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)
	auth.POST("/logout-all", JWTAuthMiddleware(jwtServ), authH.LogoutAll)
	auth.GET("/me", JWTAuthMiddleware(jwtServ), authH.Me)

	users := api.Group("/users", JWTAuthMiddleware(jwtServ))
	users.GET("", userH.ListByRole)
	users.GET("/consultants", userH.ListConsultants)
	users.GET("/representatives", userH.ListRepresentatives)

	convs := api.Group("/conversations", JWTAuthMiddleware(jwtServ))
	convs.GET("", convH.List)
	convs.POST("", convH.Create)
	convs.GET("/:conversationId", convH.Get)
	convs.GET("/:conversationId/messages", convH.ListMessages)
	convs.POST("/:conversationId/messages", convH.PostMessage)

	return r
}

func healthHandler(check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
