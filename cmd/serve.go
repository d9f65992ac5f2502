package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cli/browser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zachdehooge/sos-dashboard/internal/config"
	"github.com/Zachdehooge/sos-dashboard/internal/dashboard"
	"github.com/Zachdehooge/sos-dashboard/internal/logger"
	"github.com/Zachdehooge/sos-dashboard/internal/poller"
)

// addServeCmd adds 'serve', the live local dashboard.
func addServeCmd(rootCmd *cobra.Command, opts *rootOptions) {
	var addr string
	var open bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live operator dashboard locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.DashboardAddr
			}
			if err := config.ValidateListenAddr(addr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDashboard(ctx, cmd, a, addr, open)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SOS_DASHBOARD_ADDR)")
	serveCmd.Flags().BoolVar(&open, "open", false, "Open the dashboard in a browser")

	rootCmd.AddCommand(serveCmd)
}

func runDashboard(ctx context.Context, cmd *cobra.Command, a *app, addr string, open bool) error {
	g, ctx := errgroup.WithContext(ctx)

	hub := dashboard.NewHub(logger.Component("dashboard"))
	state := dashboard.NewState(hub, a.log)
	p := poller.New(a.client, state, poller.Config{
		ReportsInterval:       a.cfg.ReportsInterval,
		AnnouncementsInterval: a.cfg.AnnouncementsInterval,
	}, a.log)

	srv := dashboard.New(ctx, dashboard.Deps{
		API:    a.client,
		Poller: p,
		State:  state,
		Hub:    hub,
		Store:  a.store,
		Log:    a.log,
	}, dashboard.Options{
		Production:      !a.cfg.IsDevelopment(),
		RateLimitLimit:  a.cfg.RateLimitLimit,
		RateLimitPeriod: a.cfg.RateLimitPeriod,
	})

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		p.Stop()
		return nil
	})

	url := config.ListenURL(addr) + "/dashboard"
	cmd.Println(fmt.Sprintf("SOS dashboard at %s. Press Ctrl+C to stop.", url))
	if open {
		if err := browser.OpenURL(url); err != nil {
			a.log.WithError(err).Warn("could not open browser")
		}
	}

	return g.Wait()
}
