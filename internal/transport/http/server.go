package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/partyline/internal/auth"
	"github.com/vovakirdan/partyline/internal/config"
	"github.com/vovakirdan/partyline/internal/core"
)

// NewServer builds the HTTP server: websocket endpoint, uploads, login and operational routes.
// authService and metrics may be nil, which disables the login routes and /metrics.
// /ws sits on the plain mux because the upgrade hijacks a writer gin has already flushed.
func NewServer(hub *core.Hub, authService *auth.Service, metrics stdhttp.Handler, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	origins := normalizeOrigins(cfg.AllowedOrigins, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(origins))

	router.GET("/health", healthHandler)
	router.GET("/api/presence", presenceHandler(hub))

	uploads := NewUploadHandlers(cfg.UploadDir, cfg.MaxUploadBytes, logger)
	router.POST("/upload", uploads.Upload)
	router.Static("/uploads", cfg.UploadDir)

	if authService != nil {
		api := NewAPIHandlers(authService, logger)
		router.POST("/login", api.Login)
		router.POST("/register", api.Register)
	}
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, origins, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// presenceHandler lists who is online. Addresses are left out.
func presenceHandler(hub *core.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := hub.Presence()
		users := make([]any, 0, len(snapshot))
		for _, u := range snapshot {
			users = append(users, userToProto(u))
		}
		c.JSON(stdhttp.StatusOK, users)
	}
}
