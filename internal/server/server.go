// Package server serves the web front end: sign-in and sign-up forms, the
// guarded dashboard and a small JSON API, all backed by the auth provider.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/authdash/authdash/internal/config"
	"github.com/authdash/authdash/internal/mirror"
	"github.com/authdash/authdash/internal/models"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/provider/emulator"
	"github.com/authdash/authdash/internal/provider/identitytoolkit"
	"github.com/authdash/authdash/internal/views"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	db       *gorm.DB
	config   *config.Config
	logger   zerolog.Logger
	backend  provider.Backend
	sessions sessions.Store
	mirror   *mirror.GormStore
	janitor  *mirror.Janitor
	location *time.Location
	now      func() time.Time
	version  string
}

// Option customizes a Server
type Option func(*Server)

// WithBackend replaces the configured auth provider
func WithBackend(b provider.Backend) Option {
	return func(s *Server) { s.backend = b }
}

// WithClock overrides the time source used for the dashboard
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display timezone: %w", err)
	}

	server := &Server{
		db:       db,
		config:   cfg,
		logger:   zlog,
		mirror:   mirror.NewGormStore(db),
		location: loc,
		now:      time.Now,
		version:  version,
	}
	for _, opt := range opts {
		opt(server)
	}

	if server.backend == nil {
		server.backend, err = newBackend(cfg, zlog)
		if err != nil {
			return nil, err
		}
	}

	server.sessions, err = newSessionStore(cfg, zlog)
	if err != nil {
		return nil, err
	}

	server.janitor, err = mirror.NewJanitor(db, cfg.Mirror.Sweep, cfg.Mirror.Retention, zlog)
	if err != nil {
		return nil, err
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// newBackend picks the auth provider from configuration
func newBackend(cfg *config.Config, zlog zerolog.Logger) (provider.Backend, error) {
	switch cfg.Auth.Provider {
	case config.ProviderIdentityToolkit:
		return identitytoolkit.NewBackend(cfg.Auth.Endpoint, cfg.Auth.APIKey, provider.WithLogger(zlog))
	case config.ProviderEmulator:
		if cfg.Auth.EmulatorSecret == "" {
			zlog.Warn().Msg("EMULATOR_SECRET not set - emulated sessions will not survive a restart")
		}
		return provider.NewBackend(emulator.New(cfg.Auth.EmulatorSecret), provider.WithLogger(zlog)), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// newSessionStore builds the signed cookie store that carries provider
// credentials between requests
func newSessionStore(cfg *config.Config, zlog zerolog.Logger) (sessions.Store, error) {
	secret := cfg.Session.Secret
	if secret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET is required")
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		zlog.Warn().Msg("SESSION_SECRET not set - generated a temporary one, sessions end on restart")
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
		cacheSize       = 10000 // 10MB
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	var walMode string
	db.Raw("PRAGMA journal_mode").Scan(&walMode)
	zlog.Debug().Str("journal_mode", walMode).Str("path", cfg.Database.URL).Msg("Database ready")

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.SetHTMLTemplate(views.Templates())

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.Use(s.sessionMiddleware())

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Pages
	s.router.GET("/", s.root)
	s.router.GET("/login", s.loginPage)
	s.router.POST("/login", s.login)
	s.router.GET("/signup", s.signUpPage)
	s.router.POST("/signup", s.signUp)
	s.router.POST("/logout", s.logout)
	s.router.GET("/dashboard", s.requireAuth(), s.dashboard)

	// Authenticated API routes
	api := s.router.Group("/api")
	api.Use(s.requireAuthAPI())
	{
		api.GET("/auth/me", s.getCurrentUser)
	}

	s.router.NoRoute(s.notFound)
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "authdash",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close releases the database without serving
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.HTTP.Addr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	s.janitor.Start()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.janitor.Stop()
		s.Close()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.janitor.Stop()
	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	s.logger.Info().Msg("Closing database connection...")
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	} else {
		s.logger.Info().Msg("Database closed successfully")
	}

	return nil
}
