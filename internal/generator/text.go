package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	pendingHeader = color.New(color.FgRed, color.Bold)
	reviewHeader  = color.New(color.FgYellow, color.Bold)
	labelStyle    = color.New(color.Bold)
	actionStyle   = color.New(color.FgCyan)
	noticeStyle   = color.New(color.FgRed)
)

// WriteText prints the board for a terminal. Colors are dropped when the
// output is not a TTY (see color.NoColor).
func WriteText(w io.Writer, b Board) error {
	if b.Notice != "" {
		_, err := noticeStyle.Fprintln(w, b.Notice)
		return err
	}

	headers := map[string]*color.Color{
		b.Pending.Key:     pendingHeader,
		b.UnderReview.Key: reviewHeader,
	}
	for _, col := range b.Columns() {
		if _, err := headers[col.Key].Fprintf(w, "== %s (%d) ==\n", col.Title, len(col.Cards)); err != nil {
			return err
		}
		if col.Placeholder != "" {
			if _, err := fmt.Fprintln(w, col.Placeholder); err != nil {
				return err
			}
		}
		for _, card := range col.Cards {
			if err := writeCardText(w, card); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func writeCardText(w io.Writer, c Card) error {
	if _, err := fmt.Fprintf(w, "--- #%d\n", c.ID); err != nil {
		return err
	}
	for _, f := range c.Fields() {
		value := strings.ReplaceAll(f.Value, "\n", "\n    ")
		if _, err := fmt.Fprintf(w, "%s %s\n", labelStyle.Sprint(f.Label+":"), value); err != nil {
			return err
		}
	}
	if len(c.Actions) == 0 {
		return nil
	}
	targets := make([]string, 0, len(c.Actions))
	for _, a := range c.Actions {
		targets = append(targets, fmt.Sprintf("%q", string(a.Target)))
	}
	_, err := actionStyle.Fprintf(w, "Next: sos-dashboard status %d %s\n", c.ID, strings.Join(targets, " | "))
	return err
}

// WriteAnnouncementsText prints the announcement feed for a terminal.
func WriteAnnouncementsText(w io.Writer, a AnnouncementList) error {
	if a.Placeholder != "" {
		_, err := fmt.Fprintln(w, a.Placeholder)
		return err
	}
	for _, item := range a.Items {
		if _, err := fmt.Fprintf(w, "[%d] %s\n    Posted: %s\n", item.ID, item.Content, item.Posted); err != nil {
			return err
		}
	}
	return nil
}
