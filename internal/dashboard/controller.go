package dashboard

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
	"github.com/Zachdehooge/sos-dashboard/internal/session"
	"github.com/Zachdehooge/sos-dashboard/internal/validate"
)

// API is the part of the SOS API client the dashboard drives.
type API interface {
	session.Jar
	session.Checker
	Login(ctx context.Context, creds report.Credentials) (report.LoginResult, error)
	Logout(ctx context.Context) error
	SubmitReport(ctx context.Context, payload report.SubmitPayload) (report.Ack, error)
	UpdateReportStatus(ctx context.Context, id int64, status report.Status) (report.Ack, error)
	ListAnnouncements(ctx context.Context) ([]report.Announcement, error)
	CreateAnnouncement(ctx context.Context, content string) (report.Ack, error)
}

// Refresher runs the refresh loops.
type Refresher interface {
	Start(ctx context.Context) error
	RefreshReports(ctx context.Context) bool
	RefreshAnnouncements(ctx context.Context) bool
}

// SessionStore persists the API session between runs.
type SessionStore interface {
	Save(jar session.Jar) error
	Clear() error
}

// Controller holds the operator actions. Every mutation is followed by a
// refresh from the server; nothing is patched locally.
type Controller struct {
	api     API
	refresh Refresher
	store   SessionStore
	log     *logrus.Entry
}

// NewController wires the actions. store may be nil.
func NewController(api API, refresh Refresher, store SessionStore, log *logrus.Entry) *Controller {
	return &Controller{
		api:     api,
		refresh: refresh,
		store:   store,
		log:     log.WithField("component", "controller"),
	}
}

// Login authenticates against the API and saves the session.
func (c *Controller) Login(ctx context.Context, username, password string) (report.LoginResult, error) {
	creds, err := validate.Credentials(username, password)
	if err != nil {
		return report.LoginResult{}, err
	}
	res, err := c.api.Login(ctx, creds)
	if err != nil {
		return report.LoginResult{}, err
	}
	if !res.LoggedIn {
		return res, apperror.New(apperror.ErrCodeUnauthorized, res.Message)
	}
	if c.store != nil {
		if err := c.store.Save(c.api); err != nil {
			c.log.WithError(err).Warn("session not saved")
		}
	}
	c.log.WithField("username", creds.Username).Info("operator logged in")
	return res, nil
}

// Logout ends the session and returns where to send the browser. The
// destination is home whatever the API answers.
func (c *Controller) Logout(ctx context.Context) string {
	if err := c.api.Logout(ctx); err != nil {
		c.log.WithError(err).Warn("logout request failed")
	}
	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.log.WithError(err).Warn("session not cleared")
		}
	}
	return "/"
}

// SubmitSOS validates the reporter's form and sends it.
func (c *Controller) SubmitSOS(ctx context.Context, form validate.SOSForm) (report.Ack, error) {
	payload, err := validate.SOS(form)
	if err != nil {
		return report.Ack{}, err
	}
	return c.api.SubmitReport(ctx, payload)
}

// UpdateStatus moves a report to a new status and refreshes the board once
// the server has accepted it. The server decides whether the move is allowed.
func (c *Controller) UpdateStatus(ctx context.Context, id int64, rawStatus string) (report.Ack, error) {
	status, err := report.ParseStatus(rawStatus)
	if err != nil {
		return report.Ack{}, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	ack, err := c.api.UpdateReportStatus(ctx, id, status)
	if err != nil {
		return report.Ack{}, fmt.Errorf("update report %d: %w", id, err)
	}
	c.log.WithFields(logrus.Fields{"report_id": id, "status": status}).Info("status updated")
	c.refresh.RefreshReports(ctx)
	return ack, nil
}

// PostAnnouncement broadcasts content and refreshes the feed.
func (c *Controller) PostAnnouncement(ctx context.Context, content string) (report.Ack, error) {
	trimmed, err := validate.Announcement(content)
	if err != nil {
		return report.Ack{}, err
	}
	ack, err := c.api.CreateAnnouncement(ctx, trimmed)
	if err != nil {
		return report.Ack{}, fmt.Errorf("create announcement: %w", err)
	}
	c.refresh.RefreshAnnouncements(ctx)
	return ack, nil
}
