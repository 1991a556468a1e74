package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/srand/hookd/pkg/auth"
	"github.com/srand/hookd/pkg/dedup"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/logstash"
	"github.com/srand/hookd/pkg/metrics"
	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
	"github.com/srand/hookd/pkg/webhook"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var config *Config

var rootCmd = &cobra.Command{
	Use:   "hookd",
	Short: "Webhook triggered task execution service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			log.Fatal(err)
		}
		config = cfg

		level, err := log.ParseLevel(config.LogLevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(level)

		verbosity, err := cmd.Flags().GetCount("verbose")
		if err != nil {
			panic(err)
		}

		switch {
		case verbosity >= 2:
			log.SetLevel(log.TraceLevel)
		case verbosity >= 1:
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		config.Log()

		if err := serve(); err != nil {
			log.Fatal(err)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		redacted := config.Redacted()

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(&redacted); err != nil {
			log.Fatal(err)
		}
		encoder.Close()
	},
}

// Reads the configuration file, environment and flags into a validated Config.
func loadConfig(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("hookd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", 1)
	v.SetDefault("history", scheduler.DefaultHistorySize)
	v.SetDefault("log_level", string(log.InfoLevel))
	v.SetDefault("output_limit", "64KiB")
	v.SetDefault("body_limit", "1MiB")
	v.SetDefault("listen_http", []string{"tcp://:8000"})
	v.SetDefault("listen_grpc", []string{})
	v.SetDefault("secret", "")
	v.SetDefault("signature_header", auth.DefaultSignatureHeader)
	v.SetDefault("basic_auth.user", "")
	v.SetDefault("basic_auth.password", "")
	v.SetDefault("tls.cert_chain", "")
	v.SetDefault("tls.private_key", "")
	v.SetDefault("dedup.backend", dedup.BackendNone)
	v.SetDefault("dedup.redis_url", "")
	v.SetDefault("dedup.ttl", dedup.DefaultTTL.String())
	v.SetDefault("dedup.header", dedup.DefaultHeader)
	v.SetDefault("dedup.size", dedup.DefaultSize)
	v.SetDefault("logstash.storage", "memory")
	v.SetDefault("logstash.path", "")
	v.SetDefault("logstash.size", "64MiB")

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hookd.yaml")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/hookd/")
		v.AddConfigPath("$HOME/.config/hookd")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := utils.UnmarshalConfig(v, cfg); err != nil {
		return nil, err
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Runs the service until interrupted or until a listener fails.
func serve() error {
	authenticator, err := auth.NewAuthenticator(config.Config)
	if err != nil {
		return err
	}
	authenticator.Log()

	registry, err := webhook.NewRegistry(config.Webhooks)
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if config.TLS.Enabled() {
		tlsConfig, err = utils.LoadTLSConfig(config.TLS.CertChain, config.TLS.PrivateKey)
		if err != nil {
			return err
		}
	}

	// Create filesystem storage for the logstash
	stashFs, err := config.LogStash.CreateFs()
	if err != nil {
		return err
	}

	stash := logstash.NewLogStash(&config.LogStash, stashFs)

	deliveries, err := dedup.NewStore(config.Dedup)
	if err != nil {
		return err
	}
	defer deliveries.Close()

	collector := metrics.NewCollector()
	collector.SetWorkers(config.Workers)

	workers := scheduler.NewWorkerPool(
		config.Workers,
		webhook.NewCommandExecutor(registry),
		scheduler.WithOutputStore(stash),
		scheduler.WithOutputLimit(int(config.OutputLimit)),
	)

	coordinator, err := scheduler.NewCoordinator(
		workers,
		scheduler.WithHistorySize(config.History),
		scheduler.WithInstance(utils.InstanceID("hookd")),
		scheduler.WithObserver(collector),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		coordinator.Run(ctx)
		return nil
	})

	router := newRouter(&services{
		authenticator:  authenticator,
		registry:       registry,
		scheduler:      coordinator,
		deliveries:     deliveries,
		deliveryHeader: config.Dedup.Header,
		stash:          stash,
		collector:      collector,
		bodyLimit:      config.BodyLimit,
	})

	for _, uri := range config.ListenHttp {
		group.Go(func() error {
			return serveHttp(ctx, router, uri, tlsConfig)
		})
	}

	healthServer := newHealthServer(coordinator)
	for _, uri := range config.ListenGrpc {
		group.Go(func() error {
			return serveGrpc(ctx, healthServer, uri)
		})
	}

	err = group.Wait()
	log.Info("Shutting down")
	return err
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Verbosity (repeatable)")
	rootCmd.Flags().StringSliceP("listen-http", "l", []string{"tcp://:8000"}, "Addresses to listen on for HTTP connections")
	rootCmd.Flags().StringSliceP("listen-grpc", "g", []string{}, "Addresses to listen on for gRPC health checks")
	rootCmd.Flags().IntP("workers", "w", 1, "Number of tasks executed concurrently")
	rootCmd.Flags().String("log-level", string(log.InfoLevel), "Log level (trace, debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("listen_grpc", rootCmd.Flags().Lookup("listen-grpc"))
	viper.BindPFlag("listen_http", rootCmd.Flags().Lookup("listen-http"))
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))

	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
