package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/mchmarny/actionmenu/pkg/action"
	"github.com/mchmarny/actionmenu/pkg/config"
	"github.com/mchmarny/actionmenu/pkg/extension"
	"github.com/mchmarny/actionmenu/pkg/header"
	"github.com/mchmarny/actionmenu/pkg/logger"
	"github.com/mchmarny/actionmenu/pkg/menu"
	"github.com/mchmarny/actionmenu/pkg/metric"
	"github.com/mchmarny/actionmenu/pkg/render"
	"github.com/mchmarny/actionmenu/pkg/review"
	"github.com/mchmarny/actionmenu/pkg/server"
	"github.com/mchmarny/actionmenu/pkg/site"
	"github.com/mchmarny/actionmenu/pkg/urls"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const appName = "actiond"

var (
	version = "dev"     // Set at build time via -ldflags "-X main.version=version"
	commit  = "none"    // Set at build time via -ldflags "-X main.commit=commit"
	date    = "unknown" // Set at build time via -ldflags "-X main.date=date"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:    appName,
		Usage:   "Review site action menus",
		Version: version,
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			logger.SetDefaultLogger(appName, version)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			treeCommand(),
			checkCommand(),
			configCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to the YAML configuration file"}
}

func extensionsFlag() cli.Flag {
	return &cli.StringFlag{Name: "extensions", Usage: "directory of *.hcl action manifests (overrides extensions_dir)"}
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("port") {
		cfg.Port = int(c.Int("port"))
	}
	if c.IsSet("read-only") {
		cfg.ReadOnly = c.Bool("read-only")
	}
	if c.IsSet("extensions") {
		cfg.ExtensionsDir = c.String("extensions")
	}

	return cfg, cfg.Validate()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the review site",
		Flags: []cli.Flag{
			configFlag(),
			extensionsFlag(),
			&cli.IntFlag{Name: "port", Value: config.DefaultPort, Usage: "HTTP port"},
			&cli.BoolFlag{Name: "read-only", Usage: "serve the site in read-only mode"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.SetDefaultLoggerWithLevel(appName, version, cfg.LogLevel)
	log := slog.Default()
	ctx = logger.WithContext(ctx, log)

	log.Info("starting actiond", "commit", commit, "date", date, "read_only", cfg.ReadOnly)

	reg := prometheus.NewRegistry()
	metrics := metric.NewActionMetrics(reg)

	regs := extension.NewRegistries(
		header.NewRegistry(action.WithLogger(log), action.WithObserver(metrics)),
		review.NewRegistry(action.WithLogger(log), action.WithObserver(metrics)),
	)

	ext, err := installExtensions(ctx, cfg.ExtensionsDir, regs)
	if err != nil {
		return err
	}
	if ext != nil {
		defer func() {
			if err := ext.Shutdown(); err != nil {
				log.Error("failed to uninstall extensions", "error", err)
			}
		}()
	}

	pipeline, err := render.New(render.WithRecorder(metrics))
	if err != nil {
		return err
	}

	s := site.New(regs[header.RegistryName], regs[review.RegistryName], pipeline,
		site.WithReadOnly(cfg.ReadOnly),
		site.WithLocalSite(cfg.LocalSite),
		site.WithFeatures(cfg.Features),
	)

	return server.New(serverOptions(cfg, log, reg, s)...).Serve(ctx)
}

func serverOptions(cfg *config.Config, log *slog.Logger, reg *prometheus.Registry, s *site.Site) []server.Option {
	opts := []server.Option{
		server.WithPort(cfg.Port),
		server.WithReadTimeout(cfg.ReadTimeout),
		server.WithWriteTimeout(cfg.WriteTimeout),
		server.WithIdleTimeout(cfg.IdleTimeout),
		server.WithMaxHeaderBytes(cfg.MaxHeaderBytes),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithLogger(log),
		server.WithRegistry(reg),
		server.WithPrometheusMetrics(),
		server.WithHealthCheck(s),
		server.WithRoutes(s.Mount),
	}

	if cfg.TLSEnabled() {
		opts = append(opts, server.WithTLS(server.TLSConfig{
			CertFile: cfg.TLSCertFile,
			KeyFile:  cfg.TLSKeyFile,
		}))
	}

	return opts
}

// installExtensions installs the manifests in dir. An empty dir installs nothing.
func installExtensions(ctx context.Context, dir string, regs extension.Registries) (*extension.Extension, error) {
	if dir == "" {
		return nil, nil
	}

	defs, err := extension.LoadManifests(ctx, dir)
	if err != nil {
		return nil, err
	}

	return extension.Install(ctx, dir, regs, defs)
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the registered action trees as JSON",
		Flags: []cli.Flag{
			configFlag(),
			extensionsFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			regs := extension.NewRegistries(header.NewRegistry(), review.NewRegistry())
			if _, err := installExtensions(ctx, cfg.ExtensionsDir, regs); err != nil {
				return err
			}

			return printTrees(ctx, c.Root().Writer, regs)
		},
	}
}

func printTrees(ctx context.Context, w io.Writer, regs extension.Registries) error {
	rc := action.NewContext(ctx, action.WithResolver(urls.NewRoutes()))

	trees := []*menu.Menu{
		menu.All(rc, regs[header.RegistryName]),
		menu.All(rc, regs[review.RegistryName]),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(trees)
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate action manifests against the default registries",
		ArgsUsage: "<path>...",
		Action: func(ctx context.Context, c *cli.Command) error {
			return checkManifests(ctx, c.Root().Writer, c.Args().Slice())
		},
	}
}

// checkManifests installs the manifests at paths into fresh default
// registries and reports the installed actions per registry.
func checkManifests(ctx context.Context, w io.Writer, paths []string) error {
	if len(paths) == 0 {
		return errors.New("at least one manifest path is required")
	}

	defs, err := extension.LoadManifests(ctx, paths...)
	if err != nil {
		return err
	}

	regs := extension.NewRegistries(header.NewRegistry(), review.NewRegistry())
	ext, err := extension.Install(ctx, "check", regs, defs)
	if err != nil {
		return err
	}

	registered := ext.Registered()
	for _, name := range slices.Sorted(maps.Keys(registered)) {
		fmt.Fprintf(w, "%s: %d actions\n", name, len(registered[name]))
	}
	fmt.Fprintf(w, "ok: %d definitions\n", len(defs))

	return ext.Shutdown()
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print a sample configuration file",
		Action: func(_ context.Context, c *cli.Command) error {
			_, err := io.WriteString(c.Root().Writer, config.Sample())
			return err
		},
	}
}
