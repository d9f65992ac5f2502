// Package dashboard serves the local operator view: the live report lanes,
// the announcement feed and the actions that change them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/session"
	"github.com/Zachdehooge/sos-dashboard/internal/validate"
)

// Options tunes the HTTP surface.
type Options struct {
	Production      bool
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
}

// Deps are the collaborators a Server needs. Store may be nil.
type Deps struct {
	API    API
	Poller Refresher
	State  *State
	Hub    *Hub
	Store  SessionStore
	Log    *logrus.Entry
}

// Server is the gin application behind the local dashboard.
type Server struct {
	deps       Deps
	opts       Options
	controller *Controller
	guard      *session.Guard
	upgrader   websocket.Upgrader
	log        *logrus.Entry
	// loops outlive the request that starts them
	loopCtx context.Context
	engine  *gin.Engine
}

// New builds the server. ctx bounds the refresh loops it starts.
func New(ctx context.Context, deps Deps, opts Options) *Server {
	log := deps.Log.WithField("component", "dashboard")
	s := &Server{
		deps:       deps,
		opts:       opts,
		controller: NewController(deps.API, deps.Poller, deps.Store, deps.Log),
		guard:      session.NewGuard(deps.API, deps.Log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log:     log,
		loopCtx: ctx,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	if s.opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.log))

	r.GET("/healthz", s.health)
	r.GET("/", s.home)
	r.GET("/login", s.loginPage)
	r.GET("/dashboard", s.dashboard)
	r.GET("/ws", s.serveWS)

	// Logout always navigates home, so it sits outside the limiter.
	r.POST("/actions/logout", s.logout)

	limited := r.Group("/")
	limited.Use(SameOrigin(), RateLimit(s.opts.RateLimitLimit, s.opts.RateLimitPeriod))
	{
		limited.POST("/login", s.login)

		actions := limited.Group("/actions", RequireJSON())
		actions.POST("/sos", s.submitSOS)
		actions.POST("/reports/:id/status", s.updateStatus)
		actions.POST("/announcements", s.postAnnouncement)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"clients":   s.deps.Hub.Clients(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) home(c *gin.Context) {
	ctx := c.Request.Context()
	s.deps.Poller.RefreshAnnouncements(ctx)
	loggedIn, err := s.deps.API.CheckSession(ctx)
	if err != nil {
		s.log.WithError(err).Debug("session check on home page failed")
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := generator.WriteHomeHTML(c.Writer, generator.HomeView{
		Announcements: s.deps.State.Announcements(),
		LoggedIn:      loggedIn,
	}); err != nil {
		s.log.WithError(err).Error("render home page")
	}
}

func (s *Server) loginPage(c *gin.Context) {
	s.renderLogin(c, http.StatusOK, generator.LoginView{})
}

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	_, err := s.controller.Login(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		s.renderLogin(c, errorStatus(err), generator.LoginView{Username: username, Message: apperror.Message(err)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) renderLogin(c *gin.Context, status int, v generator.LoginView) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := generator.WriteLoginHTML(c.Writer, v); err != nil {
		s.log.WithError(err).Error("render login page")
	}
}

func (s *Server) dashboard(c *gin.Context) {
	decision, err := s.guard.Activate(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Warn("session check failed")
		c.String(http.StatusBadGateway, "Could not reach the SOS API: %s", apperror.Message(err))
		return
	}
	if !decision.Authenticated {
		c.Redirect(http.StatusSeeOther, decision.Redirect)
		return
	}

	if err := s.deps.Poller.Start(s.loopCtx); err != nil {
		s.log.WithError(err).Error("start poller")
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := generator.WriteDashboardHTML(c.Writer, s.deps.State.View()); err != nil {
		s.log.WithError(err).Error("render dashboard")
	}
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := NewClient(conn, s.deps.Hub)
	if !s.deps.Hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Run(c.Request.Context())
}

type sosRequest struct {
	DisasterType string `json:"disasterType"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	Details      string `json:"details"`
	MobileNumber string `json:"mobileNumber"`
}

func (s *Server) submitSOS(c *gin.Context) {
	var req sosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must be JSON"})
		return
	}
	ack, err := s.controller.SubmitSOS(c.Request.Context(), validate.SOSForm{
		DisasterType: req.DisasterType,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Details:      req.Details,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": ack.Message})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must be JSON"})
		return
	}

	ack, err := s.controller.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": ack.Message})
}

type announcementRequest struct {
	Content string `json:"content"`
}

func (s *Server) postAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must be JSON"})
		return
	}
	ack, err := s.controller.PostAnnouncement(c.Request.Context(), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": ack.Message})
}

func (s *Server) logout(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, s.controller.Logout(c.Request.Context()))
}
