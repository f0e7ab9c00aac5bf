package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sizewatch/internal/config"
	errs "github.com/vango-dev/sizewatch/internal/errors"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/remote"
	"github.com/vango-dev/sizewatch/pkg/server"
)

type serveFlags struct {
	configPath string
	addr       string
	callOnAdd  bool
	logLevel   string
	logFormat  string
	noMetrics  bool
}

func serveCmd() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sizewatch server",
		Long: `Start the sizewatch server and log every size change of every
announced element.

Configuration is read from --config, or from sizewatch.yaml,
sizewatch.yml or sizewatch.json in the working directory when present.
Flags override the file.

Examples:
  sizewatch serve
  sizewatch serve --addr=:8080 --call-on-add=false
  sizewatch serve --config=deploy/sizewatch.yaml --log-format=json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to a config file")
	cmd.Flags().StringVarP(&f.addr, "addr", "a", "", "Listen address (default from config, \":7070\")")
	cmd.Flags().BoolVar(&f.callOnAdd, "call-on-add", true, "Call listeners once when they are registered")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text, json")
	cmd.Flags().BoolVar(&f.noMetrics, "no-metrics", false, "Disable the /metrics endpoint")

	return cmd
}

// loadConfig merges the config file with explicitly set flags.
func loadConfig(cmd *cobra.Command, f serveFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case f.configPath != "":
		cfg, err = config.LoadFile(f.configPath)
	case config.Exists("."):
		cfg, err = config.Load(".")
	default:
		cfg = config.New()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Address = f.addr
	}
	if flags.Changed("call-on-add") {
		cfg.Detector.CallOnAdd = f.callOnAdd
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.noMetrics {
		cfg.Metrics.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		var coded *errs.Error
		if asCoded(err, &coded) && coded.Code == "E162" {
			return nil, errs.New("E180").WithDetail(coded.Detail).Wrap(err)
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log settings.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = cfg.Server.Address
	sc.ReadHeaderTimeout = cfg.Server.ReadHeaderTimeout.Std()
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout.Std()
	sc.HandshakeTimeout = cfg.Session.HandshakeTimeout.Std()
	sc.IdleTimeout = cfg.Session.IdleTimeout.Std()
	sc.AllowedOrigins = cfg.Server.AllowedOrigins
	sc.MaxSessions = cfg.Server.MaxSessions
	sc.MetricsEnabled = cfg.Metrics.Enabled
	sc.MetricsNamespace = cfg.Metrics.Namespace

	sc.Session = remote.Config{
		ReadTimeout:       cfg.Session.ReadTimeout.Std(),
		WriteTimeout:      cfg.Session.WriteTimeout.Std(),
		HeartbeatInterval: cfg.Session.HeartbeatInterval.Std(),
		SendQueue:         cfg.Session.SendQueue,
		MaxNodes:          cfg.Session.MaxNodes,
		CallOnAdd:         cfg.Detector.CallOnAdd,
	}
	return sc
}

// logResizes watches every announced node and logs its size changes.
func logResizes(ctx context.Context, logger *slog.Logger) func(*remote.Session) {
	return func(sess *remote.Session) {
		sess.OnNode = func(sess *remote.Session, n *remote.Node) {
			err := sess.ListenTo(ctx, element.One(n), func(el element.Element) {
				logger.Info("size changed",
					"session_id", sess.ID,
					"node", n.Name(),
					"size", el.Size().String(),
				)
			})
			if err != nil {
				logger.Warn("listen failed", "session_id", sess.ID, "node", n.Name(), "error", err)
			}
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger := newLogger(logOut, cfg.Log)
	slog.SetDefault(logger)

	srv := server.New(serverConfig(cfg),
		server.WithLogger(logger),
		server.WithSessionHandler(logResizes(ctx, logger)),
	)
	return srv.Run(ctx)
}

func asCoded(err error, target **errs.Error) bool {
	return errors.As(err, target)
}
