// Package sostest runs an in-memory SOS API for tests. It enforces the status
// state machine, so forbidden moves such as Resolved -> Pending are rejected.
package sostest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

const (
	Username   = "admin"
	Password   = "admin"
	cookieName = "session"
)

// Server is a fake SOS API backed by memory.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	reports       map[int64]*report.Report
	announcements []report.Announcement
	sessions      map[string]bool
	legacyList    bool
	failLists     int
	hits          map[string]int
}

// New starts a fake API. Call Close when done.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		nextID:   1,
		reports:  make(map[int64]*report.Report),
		sessions: make(map[string]bool),
		hits:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		s.mu.Lock()
		s.hits[c.Request.Method+" "+c.FullPath()]++
		s.mu.Unlock()
		c.Next()
	})

	r.POST("/login", s.login)
	r.GET("/logout", s.logout)
	r.GET("/check_login", s.checkLogin)
	r.POST("/api/v1/sos", s.submit)
	r.POST("/submit_sos", s.submitLegacy)
	r.GET("/get_sos_messages", s.requireSession, s.listReports)
	r.POST("/update_status/:id", s.requireSession, s.updateStatus)
	r.GET("/get_announcements", s.listAnnouncements)
	r.POST("/create_announcement", s.requireSession, s.createAnnouncement)
	r.PUT("/update_announcement/:id", s.requireSession, s.updateAnnouncement)
	r.DELETE("/delete_announcement/:id", s.requireSession, s.deleteAnnouncement)
	return r
}

// Seed stores a report with the given status and returns its id.
func (s *Server) Seed(r report.Report) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		r.ID = s.nextID
	}
	if r.ID >= s.nextID {
		s.nextID = r.ID + 1
	}
	if r.CreatedAt == nil {
		r.CreatedAt = report.NewTimestamp(time.Now().UTC())
	}
	s.reports[r.ID] = &r
	return r.ID
}

// SeedAnnouncement stores an announcement.
func (s *Server) SeedAnnouncement(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendAnnouncement(content)
}

// Report returns a copy of the stored report.
func (s *Server) Report(id int64) (report.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return report.Report{}, false
	}
	return *r, true
}

// Reports returns every stored report, newest first.
func (s *Server) Reports() []report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedReports()
}

// UseLegacyList makes /get_sos_messages answer with {pending, under_review} buckets.
func (s *Server) UseLegacyList(on bool) {
	s.mu.Lock()
	s.legacyList = on
	s.mu.Unlock()
}

// FailNextLists makes the next n report list calls answer 500.
func (s *Server) FailNextLists(n int) {
	s.mu.Lock()
	s.failLists = n
	s.mu.Unlock()
}

// Hits returns how many times "METHOD /route" was called.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) requireSession(c *gin.Context) {
	token, err := c.Cookie(cookieName)
	s.mu.Lock()
	ok := err == nil && s.sessions[token]
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var creds report.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Request must be JSON"})
		return
	}
	if creds.Username == "" || creds.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing username or password"})
		return
	}
	if creds.Username != Username || creds.Password != Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Credentials", "logged_in": false})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = true
	s.mu.Unlock()
	c.SetCookie(cookieName, token, 86400, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "logged_in": true})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(cookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
	}
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) checkLogin(c *gin.Context) {
	token, err := c.Cookie(cookieName)
	s.mu.Lock()
	ok := err == nil && s.sessions[token]
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"logged_in": ok})
}

func (s *Server) submit(c *gin.Context) {
	var p report.SubmitPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request must be JSON"})
		return
	}
	if strings.TrimSpace(p.DisasterType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed"})
		return
	}

	parts := []string{"Disaster Type: " + p.DisasterType}
	if p.Details != "" {
		parts = append(parts, "Details: "+p.Details)
	}
	if p.MobileNumber != "" {
		parts = append(parts, "Contact Number: "+p.MobileNumber)
	}
	coords := p.Location
	id := s.Seed(report.Report{
		Name:         "API Structured Submission",
		Location:     report.Location{Text: report.Location{Coordinates: &coords}.String()},
		Message:      strings.Join(parts, "\n"),
		Status:       report.StatusPending,
		Source:       "api_structured",
		MobileNumber: p.MobileNumber,
		DisasterType: p.DisasterType,
	})
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "SOS submitted successfully via API (Source: api_structured)",
		"id":      id,
	})
}

func (s *Server) submitLegacy(c *gin.Context) {
	var p report.LegacySubmitPayload
	if err := c.ShouldBindJSON(&p); err != nil || p.Name == "" || p.Location == "" || p.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields (name, location, message)"})
		return
	}
	id := s.Seed(report.Report{
		Name:     p.Name,
		Location: report.Location{Text: p.Location},
		Message:  p.Message,
		Status:   report.StatusPending,
		Source:   "web",
	})
	c.JSON(http.StatusCreated, gin.H{"message": "SOS submitted successfully via web form", "id": id})
}

func (s *Server) listReports(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLists > 0 {
		s.failLists--
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve SOS messages"})
		return
	}

	list := s.sortedReports()
	if !s.legacyList {
		c.JSON(http.StatusOK, list)
		return
	}

	pending := []report.Report{}
	review := []report.Report{}
	for _, r := range list {
		switch r.Status {
		case report.StatusPending:
			pending = append(pending, r)
		case report.StatusUnderReview:
			review = append(review, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "under_review": review})
}

func (s *Server) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
		return
	}
	var body report.StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing status field in request body"})
		return
	}
	if _, err := report.ParseStatus(string(body.Status)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Invalid status: %q", body.Status)})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("SOS message with ID %d not found", id)})
		return
	}
	if !report.CanTransition(r.Status, body.Status) {
		c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf("Cannot move SOS %d from %s to %s", id, r.Status, body.Status)})
		return
	}
	r.Status = body.Status
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "id": id, "new_status": body.Status})
}

func (s *Server) listAnnouncements(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Announcement, 0, 10)
	for i := len(s.announcements) - 1; i >= 0 && len(out) < 10; i-- {
		out = append(out, s.announcements[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createAnnouncement(c *gin.Context) {
	var p report.AnnouncementPayload
	if err := c.ShouldBindJSON(&p); err != nil || strings.TrimSpace(p.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing or empty content field"})
		return
	}
	s.mu.Lock()
	a := s.appendAnnouncement(strings.TrimSpace(p.Content))
	s.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"message": "Announcement created successfully", "announcement": a})
}

func (s *Server) updateAnnouncement(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var p report.AnnouncementPayload
	if err := c.ShouldBindJSON(&p); err != nil || strings.TrimSpace(p.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing or empty content field"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.announcements {
		if s.announcements[i].ID == id {
			s.announcements[i].Content = strings.TrimSpace(p.Content)
			c.JSON(http.StatusOK, gin.H{"message": "Announcement updated successfully", "id": id})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Announcement not found"})
}

func (s *Server) deleteAnnouncement(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.announcements {
		if s.announcements[i].ID == id {
			s.announcements = append(s.announcements[:i], s.announcements[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Announcement not found"})
}

// Announcements returns stored announcements, oldest first.
func (s *Server) Announcements() []report.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Announcement, len(s.announcements))
	copy(out, s.announcements)
	return out
}

func (s *Server) appendAnnouncement(content string) report.Announcement {
	a := report.Announcement{
		ID:        int64(len(s.announcements) + 1),
		Content:   content,
		CreatedAt: report.NewTimestamp(time.Now().UTC()),
	}
	if n := len(s.announcements); n > 0 {
		a.ID = s.announcements[n-1].ID + 1
	}
	s.announcements = append(s.announcements, a)
	return a
}

func (s *Server) sortedReports() []report.Report {
	list := make([]report.Report, 0, len(s.reports))
	for _, r := range s.reports {
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}
