// Package tls builds the client TLS configuration applied when the SMTP
// transport upgrades its connection via STARTTLS.
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Options selects the trust material for the upgraded connection.
type Options struct {
	// CAFile is an optional PEM bundle of additional trusted roots, for
	// servers with private CAs.
	CAFile string

	// CertFile and KeyFile optionally supply a client certificate.
	CertFile string
	KeyFile  string

	// InsecureSkipVerify disables server certificate verification. Only
	// for lab servers with self-signed certificates.
	InsecureSkipVerify bool
}

// ClientConfig assembles a tls.Config from the given options. With empty
// options it returns a sane default requiring TLS 1.2 or newer.
func ClientConfig(opts Options) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}

	if opts.CAFile != "" {
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}

		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA file %s", opts.CAFile)
		}
		cfg.RootCAs = pool
	}

	if opts.CertFile != "" && opts.KeyFile != "" {
		// Validate that files exist before attempting to load
		if _, err := os.Stat(opts.CertFile); err != nil {
			return nil, fmt.Errorf("certificate file not found: %w", err)
		}
		if _, err := os.Stat(opts.KeyFile); err != nil {
			return nil, fmt.Errorf("key file not found: %w", err)
		}

		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
