// Package session gates the dashboard on a logged-in server session and keeps
// that session alive between CLI invocations.
package session

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LoginPath is where unauthenticated operators are sent.
const LoginPath = "/login"

// Checker asks the API whether the current session is logged in.
type Checker interface {
	CheckSession(ctx context.Context) (bool, error)
}

// Decision is the outcome of activating the dashboard.
type Decision struct {
	Authenticated bool
	// Redirect is set when the operator must log in first.
	Redirect string
}

// Guard checks the session once per dashboard activation.
type Guard struct {
	checker Checker
	log     *logrus.Entry
}

func NewGuard(checker Checker, log *logrus.Entry) *Guard {
	return &Guard{checker: checker, log: log.WithField("component", "session")}
}

// Activate runs the session check. A transport failure is returned as an
// error and the caller picks the fallback.
func (g *Guard) Activate(ctx context.Context) (Decision, error) {
	loggedIn, err := g.checker.CheckSession(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("check session: %w", err)
	}
	if !loggedIn {
		g.log.Debug("not logged in, redirecting")
		return Decision{Redirect: LoginPath}, nil
	}
	return Decision{Authenticated: true}, nil
}
