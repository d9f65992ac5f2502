package dashboard

import (
	"bytes"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Zachdehooge/sos-dashboard/internal/generator"
)

// Publisher receives every rendered region update.
type Publisher interface {
	Publish(Update) error
}

// State is the dashboard's current display: the latest rendered board and
// announcement feed. Setters serialize all writes.
type State struct {
	mu            sync.RWMutex
	board         generator.Board
	announcements generator.AnnouncementList
	updated       time.Time
	pub           Publisher
	log           *logrus.Entry
}

// NewState starts with empty lanes and no announcements. pub may be nil.
func NewState(pub Publisher, log *logrus.Entry) *State {
	return &State{
		board:         generator.RenderReports(nil),
		announcements: generator.RenderAnnouncements(nil),
		pub:           pub,
		log:           log.WithField("component", "state"),
	}
}

// SetBoard replaces the report lanes and pushes them to connected pages.
func (s *State) SetBoard(b generator.Board) {
	s.mu.Lock()
	s.board = b
	s.updated = time.Now()
	updated := s.updated
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := generator.WriteReportsFragment(&buf, b, true); err != nil {
		s.log.WithError(err).Error("render reports fragment")
		return
	}
	s.publish(Update{Type: "reports", HTML: buf.String(), Updated: generator.FormatLocalTime(updated)})
}

// SetAnnouncements replaces the announcement feed and pushes it.
func (s *State) SetAnnouncements(a generator.AnnouncementList) {
	s.mu.Lock()
	s.announcements = a
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := generator.WriteAnnouncementsFragment(&buf, a); err != nil {
		s.log.WithError(err).Error("render announcements fragment")
		return
	}
	s.publish(Update{Type: "announcements", HTML: buf.String()})
}

// Board returns the current report lanes.
func (s *State) Board() generator.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

// Announcements returns the current feed.
func (s *State) Announcements() generator.AnnouncementList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.announcements
}

// View builds the full interactive page from the current state.
func (s *State) View() generator.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := generator.NewView(s.board, s.announcements)
	v.Interactive = true
	if !s.updated.IsZero() {
		v.LastUpdated = generator.FormatLocalTime(s.updated)
	}
	return v
}

func (s *State) publish(u Update) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(u); err != nil {
		s.log.WithError(err).Warn("publish update")
	}
}
