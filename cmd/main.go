package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/config"
	"github.com/Zachdehooge/sos-dashboard/internal/fetcher"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/logger"
	"github.com/Zachdehooge/sos-dashboard/internal/session"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	apiURL     string
	verbose    bool
	noColor    bool
	outputFile string
	watchMode  bool
}

// app is what a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	client *fetcher.Client
	store  *session.Store
	log    *logrus.Entry
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "sos-dashboard",
		Short: "Operate the SOS emergency dashboard",
		Long: `sos-dashboard talks to the SOS API: it submits distress reports,
moves them through review, broadcasts announcements and renders the
operator dashboard as a static HTML page or a live local site.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			v, err := generateDashboardHTML(cmd, a, opts)
			if err != nil {
				return err
			}
			if opts.watchMode {
				return runWatchMode(cmd, a, opts, v)
			}
			return nil
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "SOS API base URL (overrides SOS_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().StringVarP(&opts.outputFile, "output", "o", "dashboard.html", "Output HTML file path")
	rootCmd.Flags().BoolVar(&opts.watchMode, "watch", false, "Keep the HTML file up to date")

	// Additional commands
	addSubmitCmds(rootCmd, opts)
	addSessionCmds(rootCmd, opts)
	addReportCmds(rootCmd, opts)
	addAnnouncementCmds(rootCmd, opts)
	addServeCmd(rootCmd, opts)

	return rootCmd
}

// newApp loads configuration and restores any saved API session.
func newApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		normalized, err := config.NormalizeAPIURL(opts.apiURL)
		if err != nil {
			return nil, fmt.Errorf("--api-url: %w", err)
		}
		cfg.APIBaseURL = normalized
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	logger.Init(cfg.LogLevel, cfg.IsDevelopment())

	client, err := fetcher.NewClient(cfg.APIBaseURL,
		fetcher.WithTimeout(cfg.HTTPTimeout),
		fetcher.WithLogger(logger.Component("api")),
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		client: client,
		store:  session.NewStore(cfg.SessionFile, cfg.APIBaseURL),
		log:    logger.Component("cli"),
	}
	if _, err := a.store.Restore(client); err != nil {
		a.log.WithError(err).Warn("ignoring unreadable session file")
	}
	return a, nil
}

// fetchView loads both regions once. An unauthorized reports call shows the
// login prompt instead of failing the whole page.
func fetchView(ctx context.Context, a *app) (generator.View, error) {
	board := generator.RenderReportsUnauthorized()
	reports, err := a.client.ListReports(ctx)
	switch {
	case err == nil:
		board = generator.RenderReports(reports)
	case apperror.IsUnauthorized(err):
		a.log.Warn("not logged in, reports hidden")
	default:
		return generator.View{}, fmt.Errorf("failed to fetch reports: %w", err)
	}

	announcements := generator.RenderAnnouncementsUnavailable()
	if list, err := a.client.ListAnnouncements(ctx); err != nil {
		a.log.WithError(err).Warn("failed to fetch announcements")
	} else {
		announcements = generator.RenderAnnouncements(list)
	}

	return generator.NewView(board, announcements), nil
}

// generateDashboardHTML writes the dashboard file once.
func generateDashboardHTML(cmd *cobra.Command, a *app, opts *rootOptions) (generator.View, error) {
	a.log.Debug("fetching reports and announcements")

	v, err := fetchView(cmd.Context(), a)
	if err != nil {
		return generator.View{}, err
	}
	if opts.watchMode {
		v.RefreshSeconds = int(a.cfg.ReportsInterval.Seconds())
	}
	if v.Board.Notice != "" {
		v.Message = loginHint
	}

	if err := generator.GenerateDashboardHTML(v, opts.outputFile); err != nil {
		return generator.View{}, fmt.Errorf("failed to generate HTML: %w", err)
	}
	cmd.Println(fmt.Sprintf("SOS dashboard saved to %s", opts.outputFile))
	return v, nil
}

const loginHint = "Not logged in: run `sos-dashboard login`"

// printError prints err for an operator, replacing unauthorized failures
// with the login hint.
func printError(w io.Writer, err error) {
	if apperror.IsUnauthorized(err) {
		fmt.Fprintln(w, loginHint)
		return
	}
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr) && appErr.HTTPStatus != 0:
		fmt.Fprintf(w, "Error (%d): %s\n", appErr.HTTPStatus, appErr.Message)
	case errors.As(err, &appErr):
		fmt.Fprintln(w, "Error:", appErr.Message)
	default:
		fmt.Fprintln(w, "Error:", err)
	}
}
