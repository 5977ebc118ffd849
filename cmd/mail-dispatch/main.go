// Package main is the entry point for the bulk-mail dispatch engine.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shineum/mail-dispatch/internal/config"
	"github.com/shineum/mail-dispatch/internal/dispatch"
	"github.com/shineum/mail-dispatch/internal/email"
	"github.com/shineum/mail-dispatch/internal/parser"
	"github.com/shineum/mail-dispatch/internal/provider"
	"github.com/shineum/mail-dispatch/internal/provider/ses"
	"github.com/shineum/mail-dispatch/internal/provider/smtp"
	"github.com/shineum/mail-dispatch/internal/provider/stdout"
	"github.com/shineum/mail-dispatch/internal/schedule"
	dispatchtls "github.com/shineum/mail-dispatch/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Read the recipient list; a run never starts with zero recipients
	recipients, err := parser.ReadRecipients(cfg.Recipients.File)
	if err != nil {
		slog.Error("failed to read recipient list",
			"file", cfg.Recipients.File,
			"error", err,
		)
	}
	if len(recipients) == 0 {
		slog.Error("no valid recipients, refusing to start")
		os.Exit(1)
	}
	slog.Info("recipient list loaded",
		"file", cfg.Recipients.File,
		"count", len(recipients),
	)

	// Select delivery provider
	prov, sender := selectProvider(cfg)

	// Build the message once; every recipient receives the same content
	body, err := cfg.MessageBody()
	if err != nil {
		slog.Error("failed to resolve message body", "error", err)
		os.Exit(1)
	}
	msg, err := email.Build(sender, cfg.Message.Subject, body, cfg.Message.Attachments)
	if err != nil {
		slog.Error("failed to build message", "error", err)
		os.Exit(1)
	}

	slog.Info("starting mail-dispatch",
		"provider", prov.Name(),
		"recipients", len(recipients),
		"attachments", len(msg.Attachments),
		"scheduled", cfg.ScheduleEnabled(),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	run := func(ctx context.Context) {
		dispatch.Run(ctx, prov, msg, recipients)
	}

	if cfg.ScheduleEnabled() {
		spec, err := schedule.ParseSpec(cfg.Schedule.At)
		if err != nil {
			slog.Error("invalid schedule configuration", "at", cfg.Schedule.At, "error", err)
			os.Exit(1)
		}
		slog.Info("recurring dispatch armed", "at", spec.String())

		// Blocks until the context is cancelled
		if err := schedule.New(spec, run).Run(ctx); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
		slog.Info("mail-dispatch stopped")
		return
	}

	summary := dispatch.Run(ctx, prov, msg, recipients)
	slog.Info("immediate dispatch finished",
		"sent", summary.Sent,
		"failed", summary.Failed,
	)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery backend based on configuration and
// returns it together with the sender address bound into the message.
// If PROVIDER is set it takes precedence; otherwise the first configured
// backend wins (SMTP, then SES), falling back to stdout.
func selectProvider(cfg *config.Config) (provider.Provider, string) {
	switch cfg.Provider {
	case "smtp":
		if !cfg.SMTPConfigured() {
			slog.Error("SMTP provider selected but SMTP_HOST and SMTP_SENDER are required")
			os.Exit(1)
		}
		return newSMTPProvider(cfg), cfg.SMTP.Sender

	case "ses":
		if !cfg.SESConfigured() {
			slog.Error("SES provider selected but SES_REGION and SES_SENDER are required")
			os.Exit(1)
		}
		return newSESProvider(cfg), cfg.SES.Sender

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), cfg.SMTP.Sender

	case "":
		// Auto-detection fallback
		if cfg.SMTPConfigured() {
			return newSMTPProvider(cfg), cfg.SMTP.Sender
		}
		if cfg.SESConfigured() {
			return newSESProvider(cfg), cfg.SES.Sender
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New(), cfg.SMTP.Sender

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil, ""
	}
}

// newSMTPProvider builds the SMTP backend, including the TLS configuration
// for the STARTTLS upgrade.
func newSMTPProvider(cfg *config.Config) provider.Provider {
	tlsConfig, err := dispatchtls.ClientConfig(dispatchtls.Options{
		CAFile:             cfg.TLS.CAFile,
		CertFile:           cfg.TLS.CertFile,
		KeyFile:            cfg.TLS.KeyFile,
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	})
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	slog.Info("using SMTP provider",
		"host", cfg.SMTP.Host,
		"port", cfg.SMTP.Port,
		"sender", cfg.SMTP.Sender,
	)
	return smtp.New(smtp.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Sender:    cfg.SMTP.Sender,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		Timeout:   time.Duration(cfg.SMTP.TimeoutSeconds) * time.Second,
		TLSConfig: tlsConfig,
	})
}

// newSESProvider builds the AWS SES backend.
func newSESProvider(cfg *config.Config) provider.Provider {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"sender", cfg.SES.Sender,
	)
	p, err := ses.New(context.Background(), ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		slog.Error("failed to create SES provider", "error", err)
		os.Exit(1)
	}
	return p
}
