package generator

import (
	"fmt"
	"time"

	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

const (
	unknown                  = "N/A"
	emptyColumnText          = "No messages in this category."
	loginRequiredText        = "Please log in to view messages."
	noAnnouncementsText      = "No current announcements."
	announcementsFailureText = "Could not load announcements."
)

// Action is one status transition a card offers.
type Action struct {
	ReportID int64
	Target   report.Status
	Label    string
	Class    string
}

// Field is one labelled line of a card, in display order.
type Field struct {
	Label string
	Value string
}

// Card is the display form of a single report. DisasterType and MobileNumber
// are empty when the report has none and are then left out of the card.
type Card struct {
	ID           int64
	Name         string
	Location     string
	Message      string
	DisasterType string
	MobileNumber string
	Status       string
	Received     string
	Source       string
	Actions      []Action
}

// Fields lists the card's lines the way every writer shows them.
func (c Card) Fields() []Field {
	fields := []Field{
		{"Name", c.Name},
		{"Location", c.Location},
		{"Message", c.Message},
	}
	if c.DisasterType != "" {
		fields = append(fields, Field{"Disaster Type", c.DisasterType})
	}
	if c.MobileNumber != "" {
		fields = append(fields, Field{"Contact", c.MobileNumber})
	}
	return append(fields,
		Field{"Status", c.Status},
		Field{"Received", c.Received},
		Field{"Source", c.Source},
	)
}

// Column is one status lane of the board.
type Column struct {
	Key         string
	Title       string
	Cards       []Card
	Placeholder string
}

// Board is the rendered report view: only the two active lanes are shown.
type Board struct {
	Pending     Column
	UnderReview Column
	Notice      string
}

// Columns returns the lanes in display order.
func (b Board) Columns() []Column {
	return []Column{b.Pending, b.UnderReview}
}

// AnnouncementItem is one rendered announcement.
type AnnouncementItem struct {
	ID      int64
	Content string
	Posted  string
}

// AnnouncementList is the rendered announcement feed. Placeholder is set
// instead of leaving the list empty.
type AnnouncementList struct {
	Items       []AnnouncementItem
	Placeholder string
	Failed      bool
}

// RenderReports partitions reports into the Pending and Under Review lanes.
// Resolved and False Alarm reports are not shown.
func RenderReports(reports []report.Report) Board {
	board := Board{
		Pending:     Column{Key: "pendingSOS", Title: "Pending", Cards: []Card{}},
		UnderReview: Column{Key: "underReviewSOS", Title: "Under Review", Cards: []Card{}},
	}

	for _, r := range reports {
		switch r.Status {
		case report.StatusPending:
			board.Pending.Cards = append(board.Pending.Cards, renderCard(r))
		case report.StatusUnderReview:
			board.UnderReview.Cards = append(board.UnderReview.Cards, renderCard(r))
		}
	}

	for _, col := range []*Column{&board.Pending, &board.UnderReview} {
		if len(col.Cards) == 0 {
			col.Placeholder = emptyColumnText
		}
	}
	return board
}

// RenderReportsUnauthorized is the board shown when the session is missing.
func RenderReportsUnauthorized() Board {
	return Board{
		Pending:     Column{Key: "pendingSOS", Title: "Pending", Cards: []Card{}},
		UnderReview: Column{Key: "underReviewSOS", Title: "Under Review", Cards: []Card{}},
		Notice:      loginRequiredText,
	}
}

func renderCard(r report.Report) Card {
	card := Card{
		ID:           r.ID,
		Name:         orUnknown(r.Name),
		Location:     orUnknown(r.Location.String()),
		Message:      orUnknown(r.Message),
		DisasterType: r.DisasterType,
		MobileNumber: r.MobileNumber,
		Status:       orUnknown(string(r.Status)),
		Received:     unknown,
		Source:       orUnknown(r.Source),
		Actions:      []Action{},
	}
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		card.Received = FormatLocalTime(r.CreatedAt.Time)
	}

	for _, target := range report.Transitions(r.Status) {
		class := ""
		if target == report.StatusFalseAlarm {
			class = "warn"
		}
		card.Actions = append(card.Actions, Action{
			ReportID: r.ID,
			Target:   target,
			Label:    fmt.Sprintf("Mark as %s", target),
			Class:    class,
		})
	}
	return card
}

// RenderAnnouncements renders the feed, or the empty-state placeholder.
func RenderAnnouncements(list []report.Announcement) AnnouncementList {
	out := AnnouncementList{Items: make([]AnnouncementItem, 0, len(list))}
	for _, a := range list {
		posted := unknown
		if a.CreatedAt != nil && !a.CreatedAt.IsZero() {
			posted = FormatLocalTime(a.CreatedAt.Time)
		}
		out.Items = append(out.Items, AnnouncementItem{ID: a.ID, Content: a.Content, Posted: posted})
	}
	if len(out.Items) == 0 {
		out.Placeholder = noAnnouncementsText
	}
	return out
}

// RenderAnnouncementsUnavailable is shown when the feed could not be loaded.
func RenderAnnouncementsUnavailable() AnnouncementList {
	return AnnouncementList{Items: []AnnouncementItem{}, Placeholder: announcementsFailureText, Failed: true}
}

// FormatLocalTime formats t in the local zone.
func FormatLocalTime(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 at 3:04 PM MST")
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
