package routes

import (
	"net/http"
	"time"

	"contesthub/config"
	"contesthub/docs"
	"contesthub/handlers/admin"
	"contesthub/handlers/contests"
	"contesthub/handlers/registrations"
	"contesthub/handlers/submissions"
	"contesthub/handlers/users"
	"contesthub/middleware"
	"contesthub/payments/stub"
	"contesthub/realtime"
	"contesthub/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Config   *config.Config
	Services *services.Services
	Tokens   *services.TokenService
	Identity *services.IdentityVerifier
	Hub      *realtime.Hub
	// Stub is set when the stub payment provider is active; its checkout pages are mounted then
	Stub *stub.Provider
	Log  logrus.FieldLogger
}

// NewRouter builds the engine with every route and the shared middleware
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))

	// Add metrics middleware to all routes
	r.Use(middleware.MetricsMiddleware())

	rateLimiter := middleware.NewRateLimiter("default", d.Config.RateLimit)
	r.Use(middleware.RateLimiterMiddleware(rateLimiter))
	checkoutLimiter := middleware.NewRateLimiter("checkout", config.CheckoutRateLimitConfig)

	auth := middleware.Authenticate(d.Tokens)
	requireAdmin := middleware.RequireAdmin(d.Services.Access)

	contests.NewHandler(d.Services.Contests, d.Hub, d.Log).RegisterRoutes(r, auth)
	registrations.NewHandler(d.Services.Registrations, d.Services.Access, d.Log).
		RegisterRoutes(r, auth, middleware.RateLimiterMiddleware(checkoutLimiter))
	submissions.NewHandler(d.Services.Submissions, d.Services.Access, d.Log).RegisterRoutes(r, auth)
	users.NewHandler(d.Services.Users, d.Services.Queries, d.Services.Access, d.Tokens, d.Identity, d.Log).RegisterRoutes(r, auth)
	admin.NewHandler(d.Services, d.Log).RegisterRoutes(r, auth, requireAdmin)

	if d.Stub != nil {
		d.Stub.RegisterRoutes(r)
	}

	RegisterPingRoutes(r)
	RegisterMetricsRoutes(r)
	RegisterDocsRoutes(r, d.Config.PublicURL)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// RegisterPingRoutes registers the liveness probe
func RegisterPingRoutes(r gin.IRouter) {
	// @Summary Ping
	// @Tags Health
	// @Success 200 {object} map[string]string
	// @Router /ping [get]
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

// RegisterDocsRoutes serves the swagger UI
func RegisterDocsRoutes(r gin.IRouter, publicURL string) {
	docs.SwaggerInfo.Host = hostOf(publicURL)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
