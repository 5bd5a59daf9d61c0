package server

import (
	"context"
	"time"

	"resumeparser/internal/ai"
	"resumeparser/internal/common"
	"resumeparser/internal/config"
	apperrors "resumeparser/internal/errors"
	"resumeparser/internal/formatters"
	"resumeparser/internal/observability"
	"resumeparser/internal/types"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResumeParser runs the parse pipeline on a PDF stored at path
type ResumeParser interface {
	Parse(ctx context.Context, path string) (*types.ParsedResume, error)
}

// ModelStatusReporter exposes model health for /health and /stats
type ModelStatusReporter interface {
	Name() string
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig
	certs     *certificateStore
	watcher   *CertWatcher

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// CORS
	AllowedOrigins []string

	// Directory for temporary uploads; empty means os.TempDir()
	UploadDir string

	parser        ResumeParser
	models        ModelStatusReporter
	files         *common.FileProcessor
	registry      *formatters.FormatterRegistry
	observability *observability.ObservabilityManager

	Logger *apperrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	AllowedOrigins []string
	UploadDir      string
}

// Dependencies are the collaborators the server delegates to
type Dependencies struct {
	Parser        ResumeParser
	Models        ModelStatusReporter
	Observability *observability.ObservabilityManager
}

// ConfigFromApp builds a ServerConfig from the loaded application config
func ConfigFromApp(cfg *config.Config, version string) ServerConfig {
	rateLimit := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &rateLimit,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *apperrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		UploadDir:      cfg.UploadDir,
		parser:         deps.Parser,
		models:         deps.Models,
		files:          common.NewFileProcessor(logger),
		registry:       formatters.GlobalRegistry,
		observability:  deps.Observability,
		Logger:         logger,
	}
}
