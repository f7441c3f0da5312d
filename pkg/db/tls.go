package db

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// DefaultCACertPath is used when no CA certificate path is configured
const DefaultCACertPath = "certs/db-ca.crt"

// sslModes that ask for an encrypted connection
var sslModes = map[string]bool{
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// tlsConfigFor returns the client TLS settings for databaseURL, or nil when
// the URL does not request TLS (local development).
func tlsConfigFor(databaseURL, caCertPath string) (*tls.Config, error) {
	if !wantsTLS(databaseURL) {
		return nil, nil
	}

	certPath := caCertPath
	if certPath == "" {
		certPath = filepath.FromSlash(DefaultCACertPath)
	}
	caPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", certPath, err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in %s", certPath)
	}

	cfg := &tls.Config{
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
	}
	// managed instances sometimes present a certificate for another hostname
	if serverName := os.Getenv("DATABASE_TLS_SERVER_NAME"); serverName != "" {
		cfg.ServerName = serverName
	}
	return cfg, nil
}

func wantsTLS(databaseURL string) bool {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return false
	}
	return sslModes[u.Query().Get("sslmode")]
}
