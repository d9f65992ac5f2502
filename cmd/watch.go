package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/poller"
)

// fileDisplay regenerates the dashboard file whenever a loop applies a result.
type fileDisplay struct {
	mu             sync.Mutex
	path           string
	refreshSeconds int
	board          generator.Board
	announcements  generator.AnnouncementList
	log            *logrus.Entry
}

func newFileDisplay(path string, refreshSeconds int, initial generator.View, log *logrus.Entry) *fileDisplay {
	return &fileDisplay{
		path:           path,
		refreshSeconds: refreshSeconds,
		board:          initial.Board,
		announcements:  initial.Announcements,
		log:            log,
	}
}

func (d *fileDisplay) SetBoard(b generator.Board) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.board = b
	d.write()
}

func (d *fileDisplay) SetAnnouncements(a generator.AnnouncementList) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.announcements = a
	d.write()
}

func (d *fileDisplay) write() {
	v := generator.NewView(d.board, d.announcements)
	v.RefreshSeconds = d.refreshSeconds
	if d.board.Notice != "" {
		v.Message = loginHint
	}
	if err := generator.GenerateDashboardHTML(v, d.path); err != nil {
		d.log.WithError(err).Error("update failed")
		return
	}
	d.log.WithField("path", d.path).Debug("dashboard regenerated")
}

// runWatchMode keeps the HTML file current until interrupted.
func runWatchMode(cmd *cobra.Command, a *app, opts *rootOptions, initial generator.View) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := int(a.cfg.ReportsInterval.Seconds())
	display := newFileDisplay(opts.outputFile, refresh, initial, a.log)

	p := poller.New(a.client, display, poller.Config{
		ReportsInterval:       a.cfg.ReportsInterval,
		AnnouncementsInterval: a.cfg.AnnouncementsInterval,
	}, a.log)

	cmd.Println(fmt.Sprintf("Watch mode activated. Reports every %s, announcements every %s. Press Ctrl+C to stop.",
		a.cfg.ReportsInterval, a.cfg.AnnouncementsInterval))

	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return nil
}

