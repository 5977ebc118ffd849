// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the dispatch engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTimeoutSeconds bounds each SMTP connect-and-send cycle.
const defaultTimeoutSeconds = 30

// defaultSMTPPort is the standard mail submission port.
const defaultSMTPPort = 587

// Config holds the complete application configuration. Credentials are held
// for the process lifetime and never logged.
type Config struct {
	Provider   string           `yaml:"provider"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	SES        SESConfig        `yaml:"ses"`
	Message    MessageConfig    `yaml:"message"`
	Recipients RecipientsConfig `yaml:"recipients"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	TLS        TLSConfig        `yaml:"tls"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SMTPConfig holds the SMTP submission endpoint and credentials.
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Sender         string `yaml:"sender"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SESConfig holds AWS SES v2 configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// MessageConfig holds the message content sent to every recipient.
type MessageConfig struct {
	Subject     string   `yaml:"subject"`
	Body        string   `yaml:"body"`
	BodyFile    string   `yaml:"body_file"`
	Attachments []string `yaml:"attachments"`
}

// RecipientsConfig holds the recipient list source.
type RecipientsConfig struct {
	File string `yaml:"file"`
}

// ScheduleConfig holds the optional recurring schedule. An empty At means a
// single immediate run.
type ScheduleConfig struct {
	At string `yaml:"at"`
}

// TLSConfig holds client TLS material for the STARTTLS upgrade.
type TLSConfig struct {
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer, then
// overrides with environment variables. Returns an error if the specified
// file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// SMTPConfigured returns true if the SMTP endpoint and sender are set.
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Sender != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// ScheduleEnabled returns true if a recurring daily schedule is configured.
func (c *Config) ScheduleEnabled() bool {
	return c.Schedule.At != ""
}

// MessageBody resolves the message body, reading body_file when set. An
// inline body and a body file are mutually exclusive, with the file winning.
func (c *Config) MessageBody() (string, error) {
	if c.Message.BodyFile == "" {
		return c.Message.Body, nil
	}
	data, err := os.ReadFile(c.Message.BodyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Port = defaultSMTPPort
	c.SMTP.TimeoutSeconds = defaultTimeoutSeconds
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_SENDER"); v != "" {
		c.SMTP.Sender = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.SMTP.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("MESSAGE_SUBJECT"); v != "" {
		c.Message.Subject = v
	}
	if v := os.Getenv("MESSAGE_BODY"); v != "" {
		c.Message.Body = v
	}
	if v := os.Getenv("MESSAGE_BODY_FILE"); v != "" {
		c.Message.BodyFile = v
	}
	if v := os.Getenv("MESSAGE_ATTACHMENTS"); v != "" {
		c.Message.Attachments = splitList(v)
	}

	if v := os.Getenv("RECIPIENTS_FILE"); v != "" {
		c.Recipients.File = v
	}

	if v := os.Getenv("SCHEDULE_AT"); v != "" {
		c.Schedule.At = v
	}

	if v := os.Getenv("TLS_CA_FILE"); v != "" {
		c.TLS.CAFile = v
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}
	if v := os.Getenv("TLS_INSECURE_SKIP_VERIFY"); v != "" {
		c.TLS.InsecureSkipVerify = v == "true" || v == "1"
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// splitList splits a comma-separated value into trimmed non-empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
