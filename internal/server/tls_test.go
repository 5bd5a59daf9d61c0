package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"resumeparser/internal/config"
	"resumeparser/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned returns PEM encoded certificate and key valid for the given lifetime
func selfSigned(t *testing.T, serial int64, lifetime time.Duration) ([]byte, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(lifetime),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func writeCertPair(t *testing.T, dir string, serial int64) (string, string) {
	t.Helper()
	certPEM, keyPEM := selfSigned(t, serial, 24*time.Hour)
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0600))
	return certFile, keyFile
}

func servedSerial(t *testing.T, store *certificateStore) int64 {
	t.Helper()
	cert, err := store.GetCertificate(nil)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.SerialNumber.Int64()
}

func TestCertificateStoreFromContent(t *testing.T) {
	certPEM, keyPEM := selfSigned(t, 7, time.Hour)

	store, err := newCertificateStore("", "", string(certPEM), string(keyPEM))
	require.NoError(t, err)
	assert.Equal(t, int64(7), servedSerial(t, store))
	assert.False(t, store.reloadable())
	assert.Error(t, store.Reload())

	status := store.Status()
	assert.Equal(t, false, status["expired"])
	assert.Contains(t, status, "not_after")
}

func TestCertificateStoreReloadFromFiles(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 1)

	store, err := newCertificateStore(certFile, keyFile, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), servedSerial(t, store))

	writeCertPair(t, dir, 2)
	require.NoError(t, store.Reload())
	assert.Equal(t, int64(2), servedSerial(t, store))
	assert.Equal(t, int64(1), store.Status()["reloads"])

	// a broken key keeps the previous certificate
	require.NoError(t, os.WriteFile(keyFile, []byte("not a key"), 0600))
	assert.Error(t, store.Reload())
	assert.Equal(t, int64(2), servedSerial(t, store))
	assert.Contains(t, store.Status(), "last_reload_error")
}

func TestCertificateStoreErrors(t *testing.T) {
	_, err := newCertificateStore("", "", "", "")
	assert.ErrorContains(t, err, "TLS certificate and key are required")

	_, err = newCertificateStore("", "", "bad", "bad")
	assert.ErrorContains(t, err, "from content")

	_, err = newCertificateStore(filepath.Join(t.TempDir(), "missing.crt"), "missing.key", "", "")
	assert.ErrorContains(t, err, "from files")
}

func TestConfigureTLSModes(t *testing.T) {
	logger := errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 3)

	t.Run("disabled", func(t *testing.T) {
		s := NewServer(testAppConfig(), ServerConfig{TLSConfig: config.TLSConfig{Mode: "disabled"}}, Dependencies{}, logger)
		httpServer := &http.Server{Addr: "127.0.0.1:0"}
		require.NoError(t, s.configureTLS(httpServer))
		assert.Nil(t, httpServer.TLSConfig)
	})

	t.Run("server with files and reload", func(t *testing.T) {
		s := NewServer(testAppConfig(), ServerConfig{TLSConfig: config.TLSConfig{
			Mode:       "server",
			CertFile:   certFile,
			KeyFile:    keyFile,
			MinVersion: "1.3",
			AutoReload: config.AutoReloadConfig{Enabled: true, DebounceDelay: 10 * time.Millisecond},
		}}, Dependencies{}, logger)
		httpServer := &http.Server{Addr: "127.0.0.1:0"}

		require.NoError(t, s.configureTLS(httpServer))
		require.NotNil(t, httpServer.TLSConfig)
		assert.Equal(t, uint16(tls.VersionTLS13), httpServer.TLSConfig.MinVersion)
		require.NotNil(t, s.watcher)
		assert.True(t, s.watcher.IsRunning())

		s.releaseResources()
		assert.False(t, s.watcher.IsRunning())
	})

	t.Run("invalid mode", func(t *testing.T) {
		s := NewServer(testAppConfig(), ServerConfig{TLSConfig: config.TLSConfig{Mode: "mutual"}}, Dependencies{}, logger)
		assert.ErrorContains(t, s.configureTLS(&http.Server{}), "invalid TLS mode")
	})
}

func TestStartReleasesResourcesWhenTLSFails(t *testing.T) {
	logger := errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
	s := NewServer(testAppConfig(), ServerConfig{
		Host:      "127.0.0.1",
		Port:      "0",
		TLSConfig: config.TLSConfig{Mode: "server", CertFile: filepath.Join(t.TempDir(), "missing.crt"), KeyFile: "missing.key"},
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5},
	}, Dependencies{}, logger)
	require.NotNil(t, s.RateLimiter)

	err := s.Start(context.Background())
	require.ErrorContains(t, err, "failed to set up TLS")

	select {
	case <-s.RateLimiter.done:
	default:
		t.Fatal("rate limiter cleanup goroutine still running")
	}
	assert.Nil(t, s.watcher)
}

func TestCertWatcherTriggersReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 10)

	var reloads atomic.Int32
	watcher := NewCertWatcher([]string{certFile, keyFile, ""}, 20*time.Millisecond, func() { reloads.Add(1) }, nil)
	assert.Equal(t, []string{certFile, keyFile}, watcher.GetWatchedFiles())

	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })
	assert.Error(t, watcher.Start(), "second start must fail")

	// make sure the new modification time differs on coarse filesystems
	future := time.Now().Add(2 * time.Second)
	writeCertPair(t, dir, 11)
	require.NoError(t, os.Chtimes(certFile, future, future))

	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, watcher.Stop())
	assert.False(t, watcher.IsRunning())
	assert.NoError(t, watcher.Stop())
}

func TestCertWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 20)

	var reloads atomic.Int32
	watcher := NewCertWatcher([]string{certFile, keyFile}, 10*time.Millisecond, func() { reloads.Add(1) }, nil)
	require.NoError(t, watcher.Start())
	t.Cleanup(func() { _ = watcher.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0600))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestCertWatcherRequiresFiles(t *testing.T) {
	watcher := NewCertWatcher(nil, 0, func() {}, nil)
	assert.Error(t, watcher.Start())
}
