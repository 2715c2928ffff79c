package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/database"
	"personal-calendar/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	events      service.EventService
	exports     service.ExportService
	issuer      *auth.Issuer
	gate        *auth.Gate
	db          database.Execer
	logger      logrus.FieldLogger
	corsOrigins []string
}

// Deps collects everything the handler talks to.
type Deps struct {
	Users       service.UserService
	Events      service.EventService
	Exports     service.ExportService
	Issuer      *auth.Issuer
	DB          database.Execer
	Logger      logrus.FieldLogger
	CORSOrigins []string
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:       deps.Users,
		events:      deps.Events,
		exports:     deps.Exports,
		issuer:      deps.Issuer,
		gate:        auth.NewGate(deps.Issuer),
		db:          deps.DB,
		logger:      logger,
		corsOrigins: deps.CORSOrigins,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware(h.corsOrigins))

	router.GET("/health", h.health)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", requireBody(), h.register)
		authGroup.POST("/login", requireBody(), h.login)
		authGroup.GET("/me", h.requireAuth, h.me)
	}

	events := router.Group("/api/events", h.requireAuth)
	{
		events.GET("", h.listEvents)
		events.POST("", requireBody(), h.createEvent)
		events.GET("/export.ics", h.exportCalendar)
		events.GET("/export.csv", h.exportCSV)
		events.POST("/export/publish", h.publishCalendar)
		events.GET("/export/published", h.listPublished)
		events.DELETE("/export/published", h.revokePublished)
		events.GET("/:id", h.getEvent)
		events.PUT("/:id", requireBody(), h.updateEvent)
		events.PATCH("/:id", requireBody(), h.updateEvent)
		events.DELETE("/:id", h.deleteEvent)
		events.GET("/:id/export.ics", h.exportEvent)
		events.GET("/:id/google-link", h.googleLink)
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, errRouteNotFound)
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Add("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
