package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/persist-securestore/internal/cli/output"
	"github.com/yndnr/persist-securestore/internal/config"
	"github.com/yndnr/persist-securestore/internal/infra/buildinfo"
	"github.com/yndnr/persist-securestore/internal/infra/confloader"
	"github.com/yndnr/persist-securestore/internal/infra/shutdown"
	"github.com/yndnr/persist-securestore/internal/telemetry/logger"
	"github.com/yndnr/persist-securestore/internal/telemetry/metric"
	"github.com/yndnr/persist-securestore/pkg/persist"
	"github.com/yndnr/persist-securestore/pkg/securestore"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "securestore-cli",
		Usage:   "Encrypted key/value storage behind the persist adapter",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RemoveCommand(),
			BackupCommand(),
			RestoreCommand(),
			StatsCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
	}
}

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"data-dir":          "store.data_dir",
	"backend":           "store.backend",
	"namespace":         "store.namespace",
	"passphrase":        "security.passphrase",
	"key-file":          "security.key_file",
	"cipher":            "security.cipher",
	"replace-character": "adapter.replace_character",
	"log-level":         "log.level",
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"SECURESTORE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Directory holding the backend files",
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "Storage backend: badger, sqlite, memory",
		},
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "Item namespace",
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Usage:   "Passphrase unlocking the keyring",
			EnvVars: []string{"SECURESTORE_PASSPHRASE"},
		},
		&cli.StringFlag{
			Name:  "key-file",
			Usage: "File of raw key material, used instead of a passphrase",
		},
		&cli.StringFlag{
			Name:  "cipher",
			Usage: "Cipher for a new keyring: auto, aes-gcm, chacha20-poly1305, xchacha20-poly1305",
		},
		&cli.StringFlag{
			Name:    "replace-character",
			Aliases: []string{"r"},
			Usage:   "Replacement for characters illegal in keys",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "Print Prometheus metrics to stderr after the command",
		},
	}
}

// loadConfig merges defaults, the config file, environment and flags. It
// also returns the sources that contributed.
func loadConfig(c *cli.Context) (*config.Config, []string, error) {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if c.IsSet(name) {
			overrides[key] = c.String(name)
		}
	}

	path := c.String("config")
	if path == "" {
		path, _ = confloader.FindFile(config.DefaultConfigPaths()...)
	}

	cfg := config.Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithFlags(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader.Sources(), nil
}

// closeTimeout bounds session cleanup.
const closeTimeout = 10 * time.Second

// session is an opened store for the duration of one command.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	store   *securestore.Store
	adapter *persist.Adapter
	out     output.Formatter
	format  output.Format
	stdout  io.Writer
	stderr  io.Writer
	cleanup *shutdown.Hooks
}

// openSession loads configuration, opens the store and builds the adapter.
func openSession(c *cli.Context) (*session, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	cfg, _, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}

	opID := ulid.Make().String()
	ctx := logger.WithOpID(logger.WithLogger(c.Context, log), opID)
	slogger := log.Slog().With("op_id", opID)

	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		return nil, err
	}

	reg := metric.NewRegistry()
	store, err := securestore.Open(ctx, storeCfg,
		securestore.WithLogger(slogger),
		securestore.WithRegisterer(reg),
	)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Debug("store opened", "backend", cfg.Store.Backend, "namespace", store.Namespace())

	stderr := writerOr(c.App.ErrWriter, os.Stderr)
	cleanup := shutdown.NewHooks(closeTimeout)
	if c.Bool("metrics") {
		cleanup.AddCloser(func() error { return metric.WriteText(stderr, reg) })
	}
	cleanup.AddCloser(store.Close)

	return &session{
		ctx:   ctx,
		cfg:   cfg,
		store: store,
		adapter: persist.New(store, cfg.AdapterOptions(),
			persist.WithLogger(slogger),
			persist.WithMetrics(reg),
		),
		out:     output.NewFormatter(format),
		format:  format,
		stdout:  writerOr(c.App.Writer, os.Stdout),
		stderr:  stderr,
		cleanup: cleanup,
	}, nil
}

// Close closes the store, then dumps metrics when requested.
func (s *session) Close() error {
	return s.cleanup.Run()
}

// withSession runs fn against an opened session.
func withSession(fn func(*cli.Context, *session) error) cli.ActionFunc {
	return func(c *cli.Context) (err error) {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := s.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(c, s)
	}
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
