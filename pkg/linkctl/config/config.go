package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/telekom/linkctl/pkg/linkctl/callback"
	"github.com/telekom/linkctl/pkg/linkctl/scheme"
)

const (
	VersionV1 = "v1"
)

type Config struct {
	Version   string    `yaml:"version"`
	Scheme    string    `yaml:"scheme"`
	Callback  Callback  `yaml:"callback,omitempty"`
	Listener  Listener  `yaml:"listener,omitempty"`
	Sink      Sink      `yaml:"sink,omitempty"`
	Login     Login     `yaml:"login,omitempty"`
	Audit     Audit     `yaml:"audit,omitempty"`
	Telemetry Telemetry `yaml:"telemetry,omitempty"`
	Settings  Settings  `yaml:"settings,omitempty"`
}

// Callback is the host and path under Scheme that carries the token.
type Callback struct {
	Host string `yaml:"host,omitempty"`
	Path string `yaml:"path,omitempty"`
}

type Listener struct {
	SocketPath  string        `yaml:"socket-path,omitempty"`
	QueueSize   int           `yaml:"queue-size,omitempty"`
	Rate        float64       `yaml:"rate,omitempty"`
	Burst       int           `yaml:"burst,omitempty"`
	DedupWindow time.Duration `yaml:"dedup-window,omitempty"`
}

type Sink struct {
	Type           string `yaml:"type,omitempty"`
	KeyringService string `yaml:"keyring-service,omitempty"`
	KeyringUser    string `yaml:"keyring-user,omitempty"`
	FilePath       string `yaml:"file-path,omitempty"`
}

type Login struct {
	LoginURL              string            `yaml:"login-url,omitempty"`
	Authority             string            `yaml:"authority,omitempty"`
	ClientID              string            `yaml:"client-id,omitempty"`
	Scopes                []string          `yaml:"scopes,omitempty"`
	CAFile                string            `yaml:"ca-file,omitempty"`
	InsecureSkipTLSVerify bool              `yaml:"insecure-skip-tls-verify,omitempty"`
	ExtraAuthParams       map[string]string `yaml:"extra-auth-params,omitempty"`
	Timeout               time.Duration     `yaml:"timeout,omitempty"`
}

type Audit struct {
	Kafka *Kafka `yaml:"kafka,omitempty"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Telemetry configures OpenTelemetry tracing of activation handling.
type Telemetry struct {
	Enabled      bool    `yaml:"enabled,omitempty"`
	Exporter     string  `yaml:"exporter,omitempty"`
	Endpoint     string  `yaml:"endpoint,omitempty"`
	Insecure     bool    `yaml:"insecure,omitempty"`
	SamplingRate float64 `yaml:"sampling-rate,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Scheme:  "app",
		Callback: Callback{
			Host: callback.DefaultHost,
			Path: callback.DefaultPath,
		},
		Listener: Listener{
			QueueSize:   16,
			Rate:        5,
			Burst:       10,
			DedupWindow: 30 * time.Second,
		},
		Sink: Sink{
			Type: "keyring",
		},
		Login: Login{
			Scopes:  []string{"openid"},
			Timeout: 5 * time.Minute,
		},
		Settings: Settings{
			OutputFormat: "table",
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// Shape returns the callback shape the extractor matches against.
func (c *Config) Shape() callback.Shape {
	shape := callback.DefaultShape(strings.ToLower(c.Scheme))
	if c.Callback.Host != "" {
		shape.Host = c.Callback.Host
	}
	if c.Callback.Path != "" {
		shape.Path = c.Callback.Path
	}
	return shape
}

// CallbackURL is the redirect URI handed to the identity provider.
func (c *Config) CallbackURL() string {
	return c.Shape().String()
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if err := scheme.ValidateScheme(c.Scheme); err != nil {
		return err
	}
	if c.Callback.Path != "" && !strings.HasPrefix(c.Callback.Path, "/") {
		return fmt.Errorf("callback path %q must start with /", c.Callback.Path)
	}
	if c.Listener.QueueSize < 0 {
		return errors.New("listener queue-size cannot be negative")
	}
	if c.Listener.Rate < 0 || c.Listener.Burst < 0 {
		return errors.New("listener rate and burst cannot be negative")
	}
	if c.Listener.DedupWindow < 0 {
		return errors.New("listener dedup-window cannot be negative")
	}
	switch c.Sink.Type {
	case "", "keyring", "file":
	default:
		return fmt.Errorf("unsupported sink type: %s", c.Sink.Type)
	}
	if c.Login.LoginURL != "" {
		u, err := url.Parse(c.Login.LoginURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("login login-url %q must be an absolute http(s) URL", c.Login.LoginURL)
		}
	}
	if c.Audit.Kafka != nil {
		if len(c.Audit.Kafka.Brokers) == 0 {
			return errors.New("audit kafka brokers are required")
		}
		if strings.TrimSpace(c.Audit.Kafka.Topic) == "" {
			return errors.New("audit kafka topic is required")
		}
	}
	switch c.Telemetry.Exporter {
	case "", "otlp", "stdout", "none":
	default:
		return fmt.Errorf("unsupported telemetry exporter: %s", c.Telemetry.Exporter)
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return errors.New("telemetry sampling-rate must be between 0 and 1")
	}
	switch c.Settings.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Settings.OutputFormat)
	}
	return nil
}
