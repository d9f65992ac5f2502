package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

// ListAnnouncements fetches the public announcement feed, newest first.
func (c *Client) ListAnnouncements(ctx context.Context) ([]report.Announcement, error) {
	var list []report.Announcement
	if err := c.do(ctx, http.MethodGet, "/get_announcements", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []report.Announcement{}
	}
	return list, nil
}

// CreateAnnouncement broadcasts content. Callers reject blank content first.
func (c *Client) CreateAnnouncement(ctx context.Context, content string) (report.Ack, error) {
	var ack report.Ack
	if err := c.do(ctx, http.MethodPost, "/create_announcement", report.AnnouncementPayload{Content: content}, &ack); err != nil {
		return report.Ack{}, err
	}
	if ack.Message == "" {
		ack.Message = "Announcement created."
	}
	return ack, nil
}

// UpdateAnnouncement replaces the content of announcement id.
func (c *Client) UpdateAnnouncement(ctx context.Context, id int64, content string) (report.Ack, error) {
	var ack report.Ack
	path := fmt.Sprintf("/update_announcement/%d", id)
	if err := c.do(ctx, http.MethodPut, path, report.AnnouncementPayload{Content: content}, &ack); err != nil {
		return report.Ack{}, err
	}
	return ack, nil
}

// DeleteAnnouncement removes announcement id from the feed.
func (c *Client) DeleteAnnouncement(ctx context.Context, id int64) (report.Ack, error) {
	var ack report.Ack
	path := fmt.Sprintf("/delete_announcement/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &ack); err != nil {
		return report.Ack{}, err
	}
	return ack, nil
}
