package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/recycler-discovery/internal/backend"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/config"
	"github.com/mohammed-shakir/recycler-discovery/internal/core/httpclient"
	"github.com/mohammed-shakir/recycler-discovery/internal/discovery"
	"github.com/mohammed-shakir/recycler-discovery/internal/geo"
	"github.com/mohammed-shakir/recycler-discovery/internal/logger"
	"github.com/mohammed-shakir/recycler-discovery/internal/mapview"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
)

// app holds what every subcommand needs once flags and env are resolved.
type app struct {
	envFile    string
	backendURL string
	logLevel   string
	permission string

	cfg     config.Config
	log     *slog.Logger
	backend *backend.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "discovery",
		Short: "Recycler discovery screen: location, material filters and a map of collection points",
		Long: `discovery drives the recycler discovery screen against the recycler backend.

It resolves the device position, loads the material taxonomy and the
collection points matching the selected materials, and renders them on a map.
"serve" exposes the live screen over HTTP; the other commands are one-shot.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().StringVar(&a.backendURL, "backend", "", "recycler backend base URL (overrides BACKEND_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.permission, "permission", "", "simulated location permission: granted|denied (overrides LOCATION_PERMISSION)")

	root.AddCommand(
		newServeCmd(a),
		newTypesCmd(a),
		newRecyclersCmd(a),
		newDetailCmd(a),
		newScanCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "discovery", Version)
			},
		},
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.envFile != "" {
		_ = godotenv.Load(a.envFile)
	}

	cfg := config.FromEnv()
	if a.backendURL != "" {
		cfg.BackendURL = strings.TrimRight(a.backendURL, "/")
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if p := strings.ToLower(a.permission); p == "granted" || p == "denied" {
		cfg.Location.Permission = p
	}
	a.cfg = cfg

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: cmd.Name(),
	}, os.Stderr)
	a.log = logger.NewSlog(&zl)

	be, err := backend.New(a.log, httpclient.NewOutbound(httpclient.Options{
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Burst:   cfg.BackendBurst,
	}), cfg.BackendURL, backend.ParseParamStyle(cfg.TypesParamStyle))
	if err != nil {
		return err
	}
	a.backend = be
	return nil
}

// newController builds a discovery controller on the simulated device.
func (a *app) newController(nav navigation.Navigator, surface mapview.Surface) *discovery.Controller {
	return discovery.New(discovery.Deps{
		Position: geo.NewProvider(geo.Static{
			Permission: geo.ParsePermission(a.cfg.Location.Permission),
			Position:   a.cfg.Location.Coordinate(),
		}),
		Types:      a.backend,
		Candidates: a.backend,
		Surface:    surface,
		Navigator:  nav,
		Logger:     a.log,
		Map:        mapview.OptionsFrom(a.cfg.Map),
	})
}
