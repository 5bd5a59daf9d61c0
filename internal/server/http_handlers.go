package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the model availability probe of /health
const healthCheckTimeout = 5 * time.Second

// healthHandler reports liveness. When ?deep=true is given it also probes the
// model, which may cost a model call.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "ok",
		"service": "resumeparser",
		"version": s.Version,
	}

	if s.models != nil {
		response["provider"] = s.models.Name()
		response["circuit_breaker"] = s.models.GetCircuitBreakerStats()
	}

	status := http.StatusOK
	if s.models != nil && r.URL.Query().Get("deep") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		info := s.models.GetModelInfo(ctx)
		response["model"] = info
		if info != nil && !info.Available {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	if s.certs != nil {
		response["tls"] = s.certs.Status()
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumeparser",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.models != nil {
		response["provider"] = s.models.Name()
		response["circuit_breaker"] = s.models.GetCircuitBreakerStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, errorKind, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   errorKind,
		Message: message,
	})
}
