package cli

import (
	"fmt"

	"resumeparser/internal/config"
	"resumeparser/internal/observability"
	"resumeparser/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume parsing",
	Long: `Start an HTTP server that exposes the resume parser.

Available endpoints:
- POST /resume/parse: Parse an uploaded PDF (multipart field "file")
- GET /health: Health check endpoint (?deep=true probes the model)
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	override := func(flagName string, target *string) {
		if flags.Changed(flagName) {
			*target, _ = flags.GetString(flagName)
		}
	}

	override("port", &cfg.Server.Port)
	override("host", &cfg.Server.Host)
	override("tls-mode", &cfg.Server.TLS.Mode)
	override("cert-file", &cfg.Server.TLS.CertFile)
	override("key-file", &cfg.Server.TLS.KeyFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd.Flags(), cfg)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	p, provider, err := buildPipeline(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider(provider, logger)

	deps := server.Dependencies{
		Parser:        p.WithObserver(om.ParseObserver()),
		Models:        provider,
		Observability: om,
	}
	return server.NewServer(cfg, server.ConfigFromApp(cfg, Version), deps, logger).Start(cmd.Context())
}
