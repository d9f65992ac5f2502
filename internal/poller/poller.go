// Package poller keeps the dashboard display fresh with two independent
// refresh loops: reports and announcements.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

const (
	DefaultReportsInterval       = 10 * time.Second
	DefaultAnnouncementsInterval = 15 * time.Second
)

// Source is the slice of the API client the poller reads from.
type Source interface {
	ListReports(ctx context.Context) ([]report.Report, error)
	ListAnnouncements(ctx context.Context) ([]report.Announcement, error)
}

// Display receives rendered output. Implementations serialize their own updates.
type Display interface {
	SetBoard(generator.Board)
	SetAnnouncements(generator.AnnouncementList)
}

// Config sets the loop cadences. Zero values use the defaults.
type Config struct {
	ReportsInterval       time.Duration
	AnnouncementsInterval time.Duration
}

// Poller owns the two loops and their schedule.
type Poller struct {
	reports       *Loop[[]report.Report]
	announcements *Loop[[]report.Announcement]
	cfg           Config
	log           *logrus.Entry

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	initial sync.WaitGroup
}

// New wires the loops: results go through the renderer into display.
func New(src Source, display Display, cfg Config, log *logrus.Entry) *Poller {
	if cfg.ReportsInterval <= 0 {
		cfg.ReportsInterval = DefaultReportsInterval
	}
	if cfg.AnnouncementsInterval <= 0 {
		cfg.AnnouncementsInterval = DefaultAnnouncementsInterval
	}
	log = log.WithField("component", "poller")

	p := &Poller{cfg: cfg, log: log}
	p.reports = NewLoop("reports",
		src.ListReports,
		func(list []report.Report) { display.SetBoard(generator.RenderReports(list)) },
		func(err error) {
			// Other failures keep the last good board on screen.
			if apperror.IsUnauthorized(err) {
				display.SetBoard(generator.RenderReportsUnauthorized())
			}
		},
		log,
	)
	p.announcements = NewLoop("announcements",
		src.ListAnnouncements,
		func(list []report.Announcement) { display.SetAnnouncements(generator.RenderAnnouncements(list)) },
		func(error) { display.SetAnnouncements(generator.RenderAnnouncementsUnavailable()) },
		log,
	)
	return p
}

// Start runs both loops once immediately and then on their schedules.
// Calling Start again is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	logger := cronLogger{log: p.log}
	p.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	p.cron.Schedule(cron.Every(p.cfg.ReportsInterval), cron.FuncJob(func() { p.reports.Tick(p.ctx) }))
	p.cron.Schedule(cron.Every(p.cfg.AnnouncementsInterval), cron.FuncJob(func() { p.announcements.Tick(p.ctx) }))

	p.initial.Add(2)
	go func() {
		defer p.initial.Done()
		p.reports.Tick(p.ctx)
	}()
	go func() {
		defer p.initial.Done()
		p.announcements.Tick(p.ctx)
	}()

	p.cron.Start()
	p.started = true
	p.log.WithFields(logrus.Fields{
		"reports_every":       p.cfg.ReportsInterval.String(),
		"announcements_every": p.cfg.AnnouncementsInterval.String(),
	}).Info("poller started")
	return nil
}

// Started reports whether Start has run.
func (p *Poller) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// WaitInitial blocks until the immediate first ticks have finished.
func (p *Poller) WaitInitial() {
	p.initial.Wait()
}

// Stop halts the schedule, cancels in-flight requests and waits for running ticks.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	c, cancel := p.cron, p.cancel
	p.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	p.initial.Wait()
	p.log.Info("poller stopped")
}

// RefreshReports runs an out-of-band reports tick, used right after a
// status change so the board does not wait for the next scheduled tick.
func (p *Poller) RefreshReports(ctx context.Context) bool {
	return p.reports.Tick(ctx)
}

// RefreshAnnouncements runs an out-of-band announcements tick.
func (p *Poller) RefreshAnnouncements(ctx context.Context) bool {
	return p.announcements.Tick(ctx)
}

type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(toFields(keysAndValues)).WithError(err).Error(msg)
}

func toFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
