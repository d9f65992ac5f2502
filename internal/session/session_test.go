package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachdehooge/sos-dashboard/internal/fetcher"
	"github.com/Zachdehooge/sos-dashboard/internal/logger"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
	"github.com/Zachdehooge/sos-dashboard/internal/sostest"
)

type stubChecker struct {
	loggedIn bool
	err      error
	calls    int
}

func (s *stubChecker) CheckSession(context.Context) (bool, error) {
	s.calls++
	return s.loggedIn, s.err
}

func TestGuard_Activate(t *testing.T) {
	tests := []struct {
		name    string
		checker *stubChecker
		want    Decision
		wantErr bool
	}{
		{"logged in", &stubChecker{loggedIn: true}, Decision{Authenticated: true}, false},
		{"logged out", &stubChecker{}, Decision{Redirect: "/login"}, false},
		{"transport failure", &stubChecker{err: errors.New("dial tcp: refused")}, Decision{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGuard(tt.checker, logger.Discard()).Activate(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, tt.checker.calls)
		})
	}
}

func newClient(t *testing.T, url string) *fetcher.Client {
	t.Helper()
	c, err := fetcher.NewClient(url, fetcher.WithLogger(logger.Discard()))
	require.NoError(t, err)
	return c
}

func TestStore_SessionSurvivesNewClient(t *testing.T) {
	api := sostest.New()
	defer api.Close()
	ctx := context.Background()

	store := NewStore(filepath.Join(t.TempDir(), "cfg", "session.json"), api.URL)

	first := newClient(t, api.URL)
	_, err := first.Login(ctx, report.Credentials{Username: sostest.Username, Password: sostest.Password})
	require.NoError(t, err)
	require.NoError(t, store.Save(first))

	second := newClient(t, api.URL)
	found, err := store.Restore(second)
	require.NoError(t, err)
	assert.True(t, found)

	decision, err := NewGuard(second, logger.Discard()).Activate(ctx)
	require.NoError(t, err)
	assert.True(t, decision.Authenticated)
}

func TestStore_RestoreIgnoresOtherAPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_url":"http://other:8080","cookies":[{"name":"session","value":"x"}]}`), 0o600))

	found, err := NewStore(path, "http://127.0.0.1:8080").Restore(newClient(t, "http://127.0.0.1:8080"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := newClient(t, "http://127.0.0.1:8080")

	found, err := NewStore(filepath.Join(dir, "none.json"), "http://127.0.0.1:8080").Restore(c)
	require.NoError(t, err)
	assert.False(t, found)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = NewStore(bad, "http://127.0.0.1:8080").Restore(c)
	assert.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, "http://127.0.0.1:8080")

	require.NoError(t, store.Clear())
	require.NoError(t, store.Save(newClient(t, "http://127.0.0.1:8080")))
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
