package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/server"
	"github.com/mohammed-shakir/recycler-discovery/internal/intentevents"
	"github.com/mohammed-shakir/recycler-discovery/internal/metrics"
	"github.com/mohammed-shakir/recycler-discovery/internal/navigation"
	"github.com/mohammed-shakir/recycler-discovery/internal/screen"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var activate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live discovery screen over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			return a.serve(activate)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	cmd.Flags().BoolVar(&activate, "activate", false, "enter the recyclers screen on startup")
	return cmd
}

func (a *app) serve(activate bool) error {
	cfg := a.cfg
	a.log.Info("starting discovery",
		"addr", cfg.Addr,
		"version", Version,
		"backend", cfg.BackendURL,
		"permission", cfg.Location.Permission)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack := navigation.NewStack(navigation.Home)
	var events navigation.Navigator
	var closers []io.Closer
	if cfg.Intents.Enabled {
		pub, err := intentevents.NewPublisher(cfg.Intents.BrokerList(), cfg.Intents.Topic, cfg.Intents.Queue, a.log)
		if err != nil {
			return err
		}
		events = pub.ForScreen(func() string { return string(stack.Current().Screen) })
		closers = append(closers, pub)
		a.log.Info("publishing navigation intents", "topic", cfg.Intents.Topic, "brokers", cfg.Intents.Brokers)
	}

	err := a.run(ctx, stack, events, activate, closers...)
	a.log.Info("server stopped")
	return err
}

// run serves until ctx ends. Each closer is closed on shutdown, concurrently
// with the server draining; intents emitted after that are dropped.
func (a *app) run(ctx context.Context, stack *navigation.Stack, events navigation.Navigator, activate bool, closers ...io.Closer) error {
	cfg := a.cfg
	prov := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})

	host := screen.NewHost(ctx, a.newController, screen.Options{
		Logger:  a.log,
		CellRes: cfg.Map.H3Res,
		Stack:   stack,
		Events:  events,
		Detail:  a.backend,
		Gauge:   prov,
	})
	defer host.Close()
	if activate {
		_, _ = host.Activate(false)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range closers {
		g.Go(func() error {
			<-gctx.Done()
			return c.Close()
		})
	}
	g.Go(func() error {
		return server.Run(gctx, cfg, a.log, server.NewRouter(a.log, host, prov))
	})
	return g.Wait()
}
