package main

import (
	"fmt"

	"github.com/srand/hookd/pkg/auth"
	"github.com/srand/hookd/pkg/dedup"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/utils"
	"github.com/srand/hookd/pkg/webhook"
)

const redacted = "<redacted>"

type TLSConfig struct {
	// PEM encoded certificate chain.
	CertChain string `mapstructure:"cert_chain" yaml:"cert_chain,omitempty"`
	// PEM encoded private key matching the certificate.
	PrivateKey string `mapstructure:"private_key" yaml:"private_key,omitempty"`
}

func (c *TLSConfig) Enabled() bool {
	return c.CertChain != "" || c.PrivateKey != ""
}

func (c *TLSConfig) Validate() error {
	switch {
	case c.CertChain != "" && c.PrivateKey == "":
		return fmt.Errorf("tls.cert_chain is configured without tls.private_key")
	case c.CertChain == "" && c.PrivateKey != "":
		return fmt.Errorf("tls.private_key is configured without tls.cert_chain")
	}
	return nil
}

type Config struct {
	utils.GRPCOptions `mapstructure:"grpc" yaml:"grpc,omitempty"`

	// Request authentication.
	auth.Config `mapstructure:",squash" yaml:",inline"`

	// Addresses to listen on for gRPC.
	ListenGrpc []string `mapstructure:"listen_grpc" yaml:"listen_grpc"`
	// Addresses to listen on for HTTP.
	ListenHttp []string `mapstructure:"listen_http" yaml:"listen_http"`
	// Size of the worker pool.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Number of finished tasks kept for the queue projection.
	History int `mapstructure:"history" yaml:"history"`
	// Log verbosity.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Largest accepted request body.
	BodyLimit utils.ByteSize `mapstructure:"body_limit" yaml:"body_limit"`
	// Number of output bytes kept in task results.
	OutputLimit utils.ByteSize `mapstructure:"output_limit" yaml:"output_limit"`
	// TLS certificate for HTTP listeners.
	TLS TLSConfig `mapstructure:"tls" yaml:"tls,omitempty"`
	// Delivery deduplication.
	Dedup dedup.Config `mapstructure:"dedup" yaml:"dedup"`
	// LogStash configuration.
	LogStash LogStashConfig `mapstructure:"logstash" yaml:"logstash"`
	// Webhook definitions.
	Webhooks []webhook.Webhook `mapstructure:"webhooks" yaml:"webhooks"`
}

func (c *Config) SetDefaults() {
	c.Config.SetDefaults()
	c.Dedup.SetDefaults()
	c.LogStash.SetDefaults()
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.History < 0 {
		return fmt.Errorf("history must not be negative, got %d", c.History)
	}

	if c.OutputLimit < 0 {
		return fmt.Errorf("output_limit must not be negative")
	}

	if c.BodyLimit <= 0 {
		return fmt.Errorf("body_limit must be positive")
	}

	if len(c.ListenHttp) == 0 {
		return fmt.Errorf("no HTTP listen address configured")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if err := c.TLS.Validate(); err != nil {
		return err
	}

	if _, err := auth.NewAuthenticator(c.Config); err != nil {
		return err
	}

	if _, err := webhook.NewRegistry(c.Webhooks); err != nil {
		return err
	}

	return nil
}

// Returns a copy of the configuration with credentials masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Secret != "" {
		out.Secret = redacted
	}
	if out.BasicAuth.Password != "" {
		out.BasicAuth.Password = redacted
	}
	if out.Dedup.RedisURL != "" {
		out.Dedup.RedisURL = redacted
	}
	return out
}

func (c *Config) Log() {
	log.Info("Server configuration:")
	log.Infof("  gRPC listen addresses: %v", c.ListenGrpc)
	log.Infof("  HTTP listen addresses: %v", c.ListenHttp)
	log.Infof("  workers: %d", c.Workers)
	log.Infof("  history: %d", c.History)
	log.Infof("  output limit: %s", utils.HumanByteSize(c.OutputLimit.Int64()))
	log.Infof("  body limit: %s", utils.HumanByteSize(c.BodyLimit.Int64()))
	if c.TLS.Enabled() {
		log.Infof("  tls: %s", c.TLS.CertChain)
	}
	c.LogStash.LogValues()
	c.Dedup.Log()
	c.GRPCOptions.Log()
	for _, hook := range c.Webhooks {
		hook.Log()
	}
}
