package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// certificateStore holds the active server certificate and swaps it on reload
type certificateStore struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time

	certFile string
	keyFile  string

	reloads     int64
	lastReload  time.Time
	lastFailure string
}

// newCertificateStore loads the certificate from PEM content when given, otherwise from files
func newCertificateStore(certFile, keyFile, certContent, keyContent string) (*certificateStore, error) {
	store := &certificateStore{certFile: certFile, keyFile: keyFile}

	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case certContent != "" && keyContent != "":
		cert, err = tls.X509KeyPair([]byte(certContent), []byte(keyContent))
		if err != nil {
			return nil, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		// content certificates have no files to reload from
		store.certFile, store.keyFile = "", ""
	case certFile != "" && keyFile != "":
		cert, err = tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
	default:
		return nil, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}

	store.set(&cert)
	return store, nil
}

func (cs *certificateStore) set(cert *tls.Certificate) {
	var notAfter time.Time
	if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
		notAfter = leaf.NotAfter
	}

	cs.mu.Lock()
	cs.cert = cert
	cs.notAfter = notAfter
	cs.mu.Unlock()
}

// GetCertificate serves the current certificate for every handshake
func (cs *certificateStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cert, nil
}

// Reload re-reads the certificate files. The previous certificate stays active on failure.
func (cs *certificateStore) Reload() error {
	if !cs.reloadable() {
		return fmt.Errorf("certificate was not loaded from files")
	}

	cert, err := tls.LoadX509KeyPair(cs.certFile, cs.keyFile)
	if err != nil {
		cs.mu.Lock()
		cs.lastFailure = err.Error()
		cs.mu.Unlock()
		return fmt.Errorf("failed to reload server cert/key: %w", err)
	}

	cs.set(&cert)

	cs.mu.Lock()
	cs.reloads++
	cs.lastReload = time.Now()
	cs.lastFailure = ""
	cs.mu.Unlock()
	return nil
}

func (cs *certificateStore) reloadable() bool {
	return cs.certFile != "" && cs.keyFile != ""
}

// Status summarizes the certificate for /health
func (cs *certificateStore) Status() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	status := map[string]any{
		"reloadable": cs.reloadable(),
		"reloads":    cs.reloads,
	}
	if !cs.notAfter.IsZero() {
		status["not_after"] = cs.notAfter.UTC().Format(time.RFC3339)
		status["expired"] = time.Now().After(cs.notAfter)
	}
	if !cs.lastReload.IsZero() {
		status["last_reload"] = cs.lastReload.UTC().Format(time.RFC3339)
	}
	if cs.lastFailure != "" {
		status["last_reload_error"] = cs.lastFailure
	}
	return status
}

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	addr := httpServer.Addr

	switch s.TLSConfig.Mode {
	case "", "disabled":
		fmt.Printf("Starting server on http://%s\n", addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	case "server":
		fmt.Printf("Starting server with HTTPS on https://%s\n", addr)
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return s.startCertWatcher()
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", s.TLSConfig.Mode)
	}
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	store, err := newCertificateStore(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, s.TLSConfig.CertContent, s.TLSConfig.KeyContent)
	if err != nil {
		return nil, err
	}
	s.certs = store

	tlsConfig := &tls.Config{
		GetCertificate: store.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	switch s.TLSConfig.MinVersion {
	case "1.3":
		tlsConfig.MinVersion = tls.VersionTLS13
	default:
		tlsConfig.MinVersion = tls.VersionTLS12
	}

	return tlsConfig, nil
}

// startCertWatcher reloads file based certificates when they change on disk
func (s *Server) startCertWatcher() error {
	if !s.TLSConfig.AutoReload.Enabled || s.certs == nil || !s.certs.reloadable() {
		return nil
	}

	watcher := NewCertWatcher(
		[]string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile},
		s.TLSConfig.AutoReload.DebounceDelay,
		s.reloadCertificates,
		s.Logger,
	)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	s.watcher = watcher
	fmt.Println("TLS auto-reload: ENABLED (file watching)")
	return nil
}

// reloadCertificates is the watcher callback
func (s *Server) reloadCertificates() {
	err := s.certs.Reload()
	s.observability.GetMetrics().RecordCertReload(context.Background(), err == nil, s.observability)
	if err != nil {
		s.Logger.LogError(err, "Failed to reload TLS certificates")
		return
	}
	s.Logger.Info("TLS certificates reloaded successfully")
}
