package fetcher

import (
	"context"
	"net/http"

	"github.com/Zachdehooge/sos-dashboard/internal/report"
)

// Login authenticates the operator. On success the session cookie is stored
// in the client's jar. Rejected credentials come back as an UNAUTHORIZED error
// carrying the server's message.
func (c *Client) Login(ctx context.Context, creds report.Credentials) (report.LoginResult, error) {
	var res report.LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", creds, &res); err != nil {
		return report.LoginResult{}, err
	}
	if !res.LoggedIn && res.Message == "" {
		res.Message = "Invalid credentials"
	}
	return res, nil
}

// Logout ends the server session. Callers navigate home whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/logout", nil, nil)
}

// CheckSession reports whether the server considers the session logged in.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	var res report.LoginResult
	if err := c.do(ctx, http.MethodGet, "/check_login", nil, &res); err != nil {
		return false, err
	}
	return res.LoggedIn, nil
}
