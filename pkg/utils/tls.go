package utils

import (
	"crypto/tls"
	"fmt"
)

// LoadTLSConfig loads a PEM certificate chain and its private key.
// PKCS#1, PKCS#8 and EC keys are accepted. Only TLS 1.2 and later is offered.
func LoadTLSConfig(certChain, privateKey string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certChain, privateKey)
	if err != nil {
		return nil, fmt.Errorf("cannot load certificate %s with key %s: %w", certChain, privateKey, err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
