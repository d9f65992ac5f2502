package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

// SubmitReport posts a validated distress report to /api/v1/sos.
func (c *Client) SubmitReport(ctx context.Context, payload report.SubmitPayload) (report.Ack, error) {
	var ack report.Ack
	if err := c.do(ctx, http.MethodPost, "/api/v1/sos", payload, &ack); err != nil {
		return report.Ack{}, err
	}
	if ack.Message == "" {
		ack.Message = "SOS submitted successfully!"
	}
	return ack, nil
}

// SubmitLegacyReport posts to the deprecated /submit_sos endpoint.
// Deprecated: use SubmitReport; kept for servers that predate /api/v1/sos.
func (c *Client) SubmitLegacyReport(ctx context.Context, payload report.LegacySubmitPayload) (report.Ack, error) {
	var ack report.Ack
	if err := c.do(ctx, http.MethodPost, "/submit_sos", payload, &ack); err != nil {
		return report.Ack{}, err
	}
	return ack, nil
}

// ListReports retrieves every report visible to the session.
// A missing session yields an apperror with code UNAUTHORIZED.
func (c *Client) ListReports(ctx context.Context) ([]report.Report, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/get_sos_messages", nil, &raw); err != nil {
		return nil, err
	}

	reports, err := decodeReports(raw)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeParse, "malformed report list")
	}
	return reports, nil
}

// decodeReports accepts the flat list or the legacy {pending, under_review} buckets.
func decodeReports(raw json.RawMessage) ([]report.Report, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []report.Report{}, nil
	}

	if trimmed[0] == '[' {
		var list []report.Report
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var buckets struct {
		Pending     []report.Report `json:"pending"`
		UnderReview []report.Report `json:"under_review"`
	}
	if err := json.Unmarshal(trimmed, &buckets); err != nil {
		return nil, fmt.Errorf("unexpected report list shape: %w", err)
	}

	list := make([]report.Report, 0, len(buckets.Pending)+len(buckets.UnderReview))
	for _, r := range buckets.Pending {
		if r.Status == "" {
			r.Status = report.StatusPending
		}
		list = append(list, r)
	}
	for _, r := range buckets.UnderReview {
		if r.Status == "" {
			r.Status = report.StatusUnderReview
		}
		list = append(list, r)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return newer(list[i], list[j])
	})
	return list, nil
}

func newer(a, b report.Report) bool {
	if a.CreatedAt == nil || b.CreatedAt == nil {
		return false
	}
	return a.CreatedAt.After(b.CreatedAt.Time)
}

// UpdateReportStatus asks the server to move report id to status.
func (c *Client) UpdateReportStatus(ctx context.Context, id int64, status report.Status) (report.Ack, error) {
	var ack report.Ack
	path := fmt.Sprintf("/update_status/%d", id)
	if err := c.do(ctx, http.MethodPost, path, report.StatusUpdate{Status: status}, &ack); err != nil {
		return report.Ack{}, err
	}
	return ack, nil
}
