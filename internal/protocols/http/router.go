package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"forumhub/internal/core"
	"forumhub/internal/events"
	wsProtocol "forumhub/internal/protocols/websocket"
	"forumhub/internal/store"
	"forumhub/pkg/config"
)

// Server manages HTTP REST API server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	authSvc   core.AuthService
	store     store.Store
	events    events.Publisher
	limiter   *WriteLimiter
	wsHandler *wsProtocol.Handler
	now       func() time.Time
}

// NewServer creates a new HTTP server with all handlers. pub may be nil
// when the change feed is disabled.
func NewServer(
	cfg *config.Config,
	authSvc core.AuthService,
	st store.Store,
	pub events.Publisher,
	wsHandler *wsProtocol.Handler,
) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if pub == nil {
		pub = events.Discard{}
	}

	router := gin.New()

	// Global middleware
	router.Use(requestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router:    router,
		config:    cfg,
		authSvc:   authSvc,
		store:     st,
		events:    pub,
		limiter:   NewWriteLimiter(cfg.RateLimit.WritesPerSecond, cfg.RateLimit.Burst),
		wsHandler: wsHandler,
		now:       time.Now,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	if s.wsHandler != nil {
		s.router.GET("/ws/listen", s.wsHandler.HandleListen)
	}

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
			auth.GET("/me", AuthMiddleware(s.authSvc), s.me)
		}

		data := v1.Group("/data", AuthMiddleware(s.authSvc), s.limiter.Middleware())
		{
			data.GET("/*path", s.readData)
			data.PUT("/*path", s.writeData)
			data.PATCH("/*path", s.updateData)
			data.POST("/*path", s.pushKey)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router returns the gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"backend": s.config.Store.Backend,
		"time":    s.now().Format(time.RFC3339),
	})
}
