package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/linkctl/pkg/audit"
	"github.com/telekom/linkctl/pkg/cli"
	"github.com/telekom/linkctl/pkg/linkctl/auth"
	"github.com/telekom/linkctl/pkg/linkctl/bridge"
	"github.com/telekom/linkctl/pkg/linkctl/callback"
	"github.com/telekom/linkctl/pkg/linkctl/config"
	"github.com/telekom/linkctl/pkg/linkctl/deliver"
	"github.com/telekom/linkctl/pkg/linkctl/listener"
	"github.com/telekom/linkctl/pkg/linkctl/scheme"
	"github.com/telekom/linkctl/pkg/ratelimit"
	"github.com/telekom/linkctl/pkg/system"
	"github.com/telekom/linkctl/pkg/telemetry"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// Logger replaces the logger built from --debug.
	Logger *zap.Logger
}

type runtimeState struct {
	configPath     string
	cfg            *config.Config
	outputFormat   string
	schemeOverride string
	socketOverride string
	sinkOverride   string
	debug          bool
	writer         io.Writer
	logger         *zap.Logger

	newRegistrar func() (*scheme.Registrar, error)
	openBrowser  func(url string) error
	listen       func(path string) (net.Listener, error)
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath:   cfg.ConfigPath,
		writer:       cfg.OutputWriter,
		logger:       cfg.Logger,
		newRegistrar: defaultRegistrar,
		openBrowser:  auth.OpenBrowser,
	}

	root := &cobra.Command{
		Use:          "linkctl",
		Short:        "Receive OAuth callbacks through a custom URI scheme",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.outputFormat == "" {
				rt.outputFormat = cli.String("OUTPUT", "")
			}
			if rt.schemeOverride == "" {
				rt.schemeOverride = cli.String("SCHEME", "")
			}
			if rt.socketOverride == "" {
				rt.socketOverride = cli.String("SOCKET", "")
			}
			if rt.sinkOverride == "" {
				rt.sinkOverride = cli.String("SINK", "")
			}
			if !rt.debug {
				rt.debug = cli.Bool("DEBUG", false)
			}

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return rt.EnsureConfigLoaded()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&rt.schemeOverride, "scheme", "", "URI scheme override")
	root.PersistentFlags().StringVar(&rt.socketOverride, "socket", "", "Listener socket path override")
	root.PersistentFlags().StringVar(&rt.sinkOverride, "sink", "", "Token sink override: keyring or file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewRegisterCommand(),
		NewListenCommand(),
		NewOpenCommand(),
		NewLoginCommand(),
		NewStatusCommand(),
		NewLogoutCommand(),
		NewConfigCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func defaultRegistrar() (*scheme.Registrar, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable: %w", err)
	}
	return &scheme.Registrar{AppName: "linkctl", Executable: exe, Args: []string{"open"}}, nil
}

func (rt *runtimeState) OutputFormat() string {
	if rt.outputFormat != "" {
		return rt.outputFormat
	}
	if rt.cfg != nil && rt.cfg.Settings.OutputFormat != "" {
		return rt.cfg.Settings.OutputFormat
	}
	return "table"
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

// EnsureConfigLoaded reads the config file, falling back to defaults when it
// does not exist, and applies flag and environment overrides.
func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.Load(rt.configPathValue())
	if errors.Is(err, os.ErrNotExist) {
		defaults := config.DefaultConfig()
		cfg, err = &defaults, nil
	}
	if err != nil {
		return err
	}
	if rt.schemeOverride != "" {
		cfg.Scheme = rt.schemeOverride
	}
	if rt.socketOverride != "" {
		cfg.Listener.SocketPath = rt.socketOverride
	}
	if rt.sinkOverride != "" {
		cfg.Sink.Type = rt.sinkOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", rt.configPathValue(), err)
	}
	rt.cfg = cfg
	return nil
}

// Logger returns the process logger, building it on first use.
func (rt *runtimeState) Logger() (*zap.SugaredLogger, error) {
	if rt.logger == nil {
		logger, err := system.NewLogger(rt.debug)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		rt.logger = logger
	}
	return rt.logger.Sugar(), nil
}

func (rt *runtimeState) SocketPath() string {
	if rt.cfg.Listener.SocketPath != "" {
		return rt.cfg.Listener.SocketPath
	}
	return listener.DefaultSocketPath(rt.cfg.Shape().Scheme)
}

// Store opens the configured persistent token sink.
func (rt *runtimeState) Store() (deliver.Store, error) {
	path := rt.cfg.Sink.FilePath
	if rt.cfg.Sink.Type == deliver.TypeFile && path == "" {
		path = config.DefaultTokenPath()
	}
	return deliver.NewStore(deliver.Options{
		Type:           rt.cfg.Sink.Type,
		KeyringService: rt.cfg.Sink.KeyringService,
		KeyringUser:    rt.cfg.Sink.KeyringUser,
		FilePath:       path,
		Key:            rt.cfg.Shape().Scheme,
	})
}

func (rt *runtimeState) listenerConfig(initial []string) listener.Config {
	rl := ratelimit.DefaultActivationConfig()
	if rt.cfg.Listener.Rate > 0 {
		rl.Rate = rt.cfg.Listener.Rate
	}
	if rt.cfg.Listener.Burst > 0 {
		rl.Burst = rt.cfg.Listener.Burst
	}
	return listener.Config{
		SocketPath: rt.SocketPath(),
		QueueSize:  rt.cfg.Listener.QueueSize,
		RateLimit:  rl,
		Initial:    initial,
		Debug:      rt.debug,
		Listen:     rt.listen,
	}
}

func (rt *runtimeState) oidcConfig() auth.OIDCConfig {
	return auth.OIDCConfig{
		LoginURL:        rt.cfg.Login.LoginURL,
		Authority:       rt.cfg.Login.Authority,
		ClientID:        rt.cfg.Login.ClientID,
		Scopes:          rt.cfg.Login.Scopes,
		CAFile:          rt.cfg.Login.CAFile,
		InsecureSkipTLS: rt.cfg.Login.InsecureSkipTLSVerify,
		ExtraAuthParams: rt.cfg.Login.ExtraAuthParams,
	}
}

// newRecorder builds the audit pipeline: the log sink always, plus Kafka
// when configured.
func (rt *runtimeState) newRecorder() (*audit.Recorder, error) {
	log, err := rt.Logger()
	if err != nil {
		return nil, err
	}
	logger := log.Desugar()
	var sink audit.Sink = audit.NewLogSink(logger)
	if k := rt.cfg.Audit.Kafka; k != nil {
		kafkaSink, err := audit.NewKafkaSink(audit.KafkaSinkConfig{Brokers: k.Brokers, Topic: k.Topic}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka audit sink: %w", err)
		}
		sink = audit.NewMultiSink([]audit.Sink{sink, kafkaSink}, logger)
	}
	return audit.NewRecorder(sink, audit.DefaultRecorderConfig(), logger), nil
}

func (rt *runtimeState) newBridge(d deliver.Deliverer, rec *audit.Recorder, opts ...callback.Option) (*bridge.Bridge, error) {
	log, err := rt.Logger()
	if err != nil {
		return nil, err
	}
	extractor, err := callback.NewExtractor(rt.cfg.Shape(), opts...)
	if err != nil {
		return nil, err
	}
	window := rt.cfg.Listener.DedupWindow
	if window <= 0 {
		window = bridge.DefaultDedupWindow
	}
	return bridge.New(extractor, d, log,
		bridge.WithDeduper(bridge.NewDeduper(window)),
		bridge.WithAudit(rec),
	), nil
}

// initTracing installs the tracer provider described by the telemetry
// section. The returned func flushes spans and never fails the command.
func (rt *runtimeState) initTracing(ctx context.Context) (func(), error) {
	log, err := rt.Logger()
	if err != nil {
		return nil, err
	}
	t := rt.cfg.Telemetry
	_, shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:      t.Enabled,
		Exporter:     t.Exporter,
		Endpoint:     t.Endpoint,
		Insecure:     t.Insecure,
		SamplingRate: t.SamplingRate,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warnw("Failed to flush traces", "error", err)
		}
	}, nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}
