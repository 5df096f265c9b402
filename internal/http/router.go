package http

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"albaranes-api/internal/domain"
	"albaranes-api/internal/logging"
	"albaranes-api/internal/repository"
	"albaranes-api/internal/service"
)

// Handlers agrupa los handlers que monta el router.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Client       *ClientHandler
	Project      *ProjectHandler
	DeliveryNote *DeliveryNoteHandler
	Storage      *StorageHandler
	Mail         *MailHandler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	notifier *logging.WebhookNotifier,
	tokens *service.TokenService,
	users repository.UserRepository,
	h Handlers,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger, notifier), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", Health)

	session := SessionMiddleware(tokens, users, logger)
	adminOnly := RequireRole(domain.RoleAdmin)

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	usersGroup := r.Group("/users")
	usersGroup.POST("/recover-password-code", h.User.RecoverPasswordCode)
	usersGroup.POST("/change-password", h.User.ChangePassword)
	usersGroup.POST("/accept-invite", h.User.AcceptInvite)
	usersGroup.GET("", session, adminOnly, h.User.List)
	usersGroup.GET("/me", session, h.User.Me)
	usersGroup.GET("/:id", session, h.User.Get)
	usersGroup.POST("/validate-email", session, h.User.VerifyEmail)
	usersGroup.POST("/invite", session, adminOnly, h.User.Invite)
	usersGroup.PATCH("/:id/role", session, adminOnly, h.User.ChangeRole)
	usersGroup.DELETE("", session, h.User.Delete)
	usersGroup.PATCH("/onboarding/personal", session, h.User.OnboardingPersonal)
	usersGroup.PATCH("/onboarding/company", session, h.User.OnboardingCompany)
	usersGroup.PATCH("/logo", session, h.User.UpdateLogo)

	client := r.Group("/client", session)
	client.POST("", h.Client.Create)
	client.GET("", h.Client.List)
	client.GET("/archive", h.Client.ListArchived)
	client.GET("/:id", h.Client.Get)
	client.PUT("/:id", h.Client.Update)
	client.PATCH("/archive/:id", h.Client.Archive)
	client.PATCH("/restore/:id", h.Client.Restore)
	client.PATCH("/logo/:id", h.Client.UpdateLogo)
	client.DELETE("/:id", h.Client.Delete)

	project := r.Group("/project", session)
	project.POST("", h.Project.Create)
	project.GET("", h.Project.List)
	project.GET("/archive", h.Project.ListArchived)
	project.GET("/:id", h.Project.Get)
	project.PUT("/:id", h.Project.Update)
	project.PATCH("/archive/:id", h.Project.Archive)
	project.PATCH("/restore/:id", h.Project.Restore)
	project.DELETE("/:id", h.Project.Delete)

	note := r.Group("/deliverynote", session)
	note.POST("", h.DeliveryNote.Create)
	note.GET("", h.DeliveryNote.List)
	note.GET("/:id", h.DeliveryNote.Get)
	note.GET("/pdf/:id", h.DeliveryNote.DownloadPDF)
	note.PATCH("/sign/:id", h.DeliveryNote.Sign)
	note.DELETE("/:id", h.DeliveryNote.Delete)

	stor := r.Group("/storage")
	stor.GET("", h.Storage.List)
	stor.GET("/:id", h.Storage.Get)
	stor.POST("", session, h.Storage.Upload)
	stor.PUT("/:id", session, h.Storage.Replace)
	stor.DELETE("/:id", session, h.Storage.Delete)

	r.POST("/mail", session, h.Mail.Send)

	return r
}

// zapLoggerMiddleware registra cada petición con zap y reenvía al webhook las
// respuestas con estado >= 400.
func zapLoggerMiddleware(logger *zap.Logger, notifier *logging.WebhookNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
		if status >= 400 && notifier != nil {
			notifier.Notify(fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status))
		}
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
