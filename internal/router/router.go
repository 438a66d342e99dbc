package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/handler"
	"github.com/refexsite/internal/logging"
	"github.com/refexsite/internal/metrics"
	"go.uber.org/zap"
)

const sessionName = "refex_session"

// Options configures the middleware stack around the API.
type Options struct {
	SessionSecret string
	CORSOrigins   []string
	UploadDir     string
	UploadURLPath string
	Logger        *zap.Logger
	Metrics       *metrics.HTTP
}

// SetupRouter builds the gin engine serving the JSON API.
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewHTTP()
	}

	r := gin.New()
	r.Use(logging.Recovery(logger), logging.RequestLogger(logger), m.Middleware())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	if opts.UploadDir != "" {
		urlPath := opts.UploadURLPath
		if urlPath == "" {
			urlPath = "/uploads"
		}
		r.Static(urlPath, opts.UploadDir)
	}

	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", m.Handler())

	auth := handler.AuthRequired()
	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)
		authGroup.GET("/me", api.Me)

		api.RegisterContentRoutes(apiGroup.Group("/cms"), auth)

		upload := apiGroup.Group("/upload", auth)
		upload.POST("/image", api.UploadImage)
		upload.POST("/pdf", api.UploadPDF)

		admin := apiGroup.Group("/admin", auth)
		admin.GET("/settings", api.GetSystemSettings)
		admin.PUT("/settings", api.UpdateSystemSettings)
		admin.POST("/settings/stock-test", api.TestStockAPI)

		stockGroup := apiGroup.Group("/stock")
		stockGroup.GET("/quote", api.GetStockQuote)
		stockGroup.GET("/quotes", api.GetStockQuotes)
		stockGroup.GET("/history", api.GetStockHistory)
		stockGroup.POST("/history/refresh", auth, api.RefreshStockHistory)
		stockGroup.POST("/history/import", auth, api.ImportStockHistory)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}

	var allowed []string
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = allowed
	return cfg
}
