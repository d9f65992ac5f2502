package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a distress report.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusUnderReview Status = "Under Review"
	StatusResolved    Status = "Resolved"
	StatusFalseAlarm  Status = "False Alarm"
)

// Statuses lists every status the API accepts, in lifecycle order.
var Statuses = []Status{StatusPending, StatusUnderReview, StatusResolved, StatusFalseAlarm}

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusFalseAlarm},
	StatusUnderReview: {StatusResolved, StatusFalseAlarm},
}

// ParseStatus accepts exactly one of the four API status strings.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: allowed statuses are Pending, Under Review, Resolved, False Alarm", s)
}

// Transitions returns the statuses a report may move to from s, in display order.
// Resolved and False Alarm are terminal.
func Transitions(s Status) []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	for _, st := range transitions[from] {
		if st == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is either structured coordinates or the free-text location the server stores.
type Location struct {
	Coordinates *Coordinates
	Text        string
}

// UnmarshalJSON accepts a {latitude, longitude} object, a string, or null.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = Location{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*l = Location{Text: text}
		return nil
	}
	var c Coordinates
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	*l = Location{Coordinates: &c}
	return nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.Coordinates != nil {
		return json.Marshal(l.Coordinates)
	}
	if l.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(l.Text)
}

// String formats the location the way the server stores structured submissions.
func (l Location) String() string {
	if l.Coordinates != nil {
		return fmt.Sprintf("Lat: %.6f, Lng: %.6f", l.Coordinates.Latitude, l.Coordinates.Longitude)
	}
	return l.Text
}

// IsZero reports whether no location was supplied.
func (l Location) IsZero() bool {
	return l.Coordinates == nil && l.Text == ""
}

// Report is a distress report as listed by the API.
type Report struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name,omitempty"`
	Location     Location   `json:"location"`
	Message      string     `json:"message,omitempty"`
	Status       Status     `json:"status"`
	Source       string     `json:"source,omitempty"`
	MobileNumber string     `json:"mobile_number,omitempty"`
	DisasterType string     `json:"disaster_type,omitempty"`
	Details      string     `json:"details,omitempty"`
	CreatedAt    *Timestamp `json:"created_at,omitempty"`
}

// Announcement is an operator broadcast. Immutable from the dashboard's point of view.
type Announcement struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// Timestamp decodes the API's ISO-8601 timestamps, which may lack a zone (naive UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || *raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, *raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", *raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// NewTimestamp wraps t for use in API payloads.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}
