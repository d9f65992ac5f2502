package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachdehooge/sos-dashboard/internal/fetcher"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/logger"
	"github.com/Zachdehooge/sos-dashboard/internal/poller"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
	"github.com/Zachdehooge/sos-dashboard/internal/session"
	"github.com/Zachdehooge/sos-dashboard/internal/sostest"
)

type fixture struct {
	api    *sostest.Server
	client *fetcher.Client
	state  *State
	hub    *Hub
	poller *poller.Poller
	store  *session.Store
	srv    *Server
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := sostest.New()
	t.Cleanup(api.Close)

	client, err := fetcher.NewClient(api.URL, fetcher.WithLogger(logger.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	state := NewState(hub, logger.Discard())
	p := poller.New(client, state, poller.Config{}, logger.Discard())
	t.Cleanup(p.Stop)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), api.URL)

	srv := New(ctx, Deps{
		API:    client,
		Poller: p,
		State:  state,
		Hub:    hub,
		Store:  store,
		Log:    logger.Discard(),
	}, opts)

	return &fixture{api: api, client: client, state: state, hub: hub, poller: p, store: store, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	form := url.Values{"username": {sostest.Username}, "password": {sostest.Password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestDashboard_RedirectsWhenLoggedOut(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.False(t, f.poller.Started())
}

func TestDashboard_LoginStartsPollerOnce(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.Seed(report.Report{ID: 3, Status: report.StatusPending, Name: "Ann"})
	f.login(t)

	_, err := os.Stat(f.store.Path())
	require.NoError(t, err, "login saves the session")

	w := f.do(t, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="pendingSOS"`)
	assert.True(t, f.poller.Started())

	f.poller.WaitInitial()
	require.Len(t, f.state.Board().Pending.Cards, 1)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/dashboard", "").Code)
	assert.Contains(t, f.do(t, http.MethodGet, "/dashboard", "").Body.String(), `data-report-id="3"`)
}

func TestLogin_BadCredentialsShowsForm(t *testing.T) {
	f := newFixture(t, Options{})

	form := url.Values{"username": {"admin"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Credentials")
	assert.Contains(t, w.Body.String(), `value="admin"`)
}

func TestUpdateStatus_RefreshesFromServer(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.Seed(report.Report{ID: 7, Status: report.StatusUnderReview, Name: "Cy"})
	f.login(t)
	require.True(t, f.poller.RefreshReports(context.Background()))
	require.Len(t, f.state.Board().UnderReview.Cards, 1)
	listsBefore := f.api.Hits("GET /get_sos_messages")

	w := f.do(t, http.MethodPost, "/actions/reports/7/status", `{"status":"Resolved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, 1, f.api.Hits("POST /update_status/:id"))
	assert.Equal(t, listsBefore+1, f.api.Hits("GET /get_sos_messages"))
	assert.Empty(t, f.state.Board().UnderReview.Cards)

	stored, ok := f.api.Report(7)
	require.True(t, ok)
	assert.Equal(t, report.StatusResolved, stored.Status)
}

func TestUpdateStatus_Failures(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.Seed(report.Report{ID: 7, Status: report.StatusResolved})
	f.login(t)

	w := f.do(t, http.MethodPost, "/actions/reports/7/status", `{"status":"Closed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, f.api.Hits("POST /update_status/:id"))

	w = f.do(t, http.MethodPost, "/actions/reports/abc/status", `{"status":"Resolved"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	listsBefore := f.api.Hits("GET /get_sos_messages")
	w = f.do(t, http.MethodPost, "/actions/reports/7/status", `{"status":"Pending"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorBody(t, w), "Cannot move SOS 7")
	assert.Equal(t, listsBefore, f.api.Hits("GET /get_sos_messages"), "no refresh after a rejected update")

	w = f.do(t, http.MethodPost, "/actions/reports/99/status", `{"status":"Resolved"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatus_LoggedOut(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.Seed(report.Report{ID: 1, Status: report.StatusPending})

	w := f.do(t, http.MethodPost, "/actions/reports/1/status", `{"status":"Under Review"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostAnnouncement(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t)

	w := f.do(t, http.MethodPost, "/actions/announcements", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Broadcast message cannot be empty.", errorBody(t, w))
	assert.Equal(t, 0, f.api.Hits("POST /create_announcement"))

	w = f.do(t, http.MethodPost, "/actions/announcements", `{"content":"  Shelter open at the school  "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	items := f.state.Announcements().Items
	require.Len(t, items, 1)
	assert.Equal(t, "Shelter open at the school", items[0].Content)
}

func TestSubmitSOS(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/actions/sos", `{"disasterType":"Flood","latitude":"91","longitude":"0"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, f.api.Hits("POST /api/v1/sos"))

	w = f.do(t, http.MethodPost, "/actions/sos", `{"disasterType":"Flood","latitude":"12.5","longitude":"-45","details":"roof"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, f.api.Reports(), 1)
}

func TestLogout_AlwaysGoesHome(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t)

	w := f.do(t, http.MethodPost, "/actions/logout", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	_, err := os.Stat(f.store.Path())
	assert.True(t, os.IsNotExist(err))

	f.api.Close()
	w = f.do(t, http.MethodPost, "/actions/logout", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogout_GoesHomeWhenRateLimited(t *testing.T) {
	f := newFixture(t, Options{RateLimitLimit: 1, RateLimitPeriod: time.Minute})
	f.login(t)

	w := f.do(t, http.MethodPost, "/actions/announcements", `{"content":""}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	w = f.do(t, http.MethodPost, "/actions/logout", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestActions_RejectCrossSiteRequests(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.Seed(report.Report{ID: 7, Status: report.StatusPending})
	f.login(t)

	tests := []struct {
		name        string
		contentType string
		origin      string
		want        int
	}{
		{"plain text body", "text/plain", "", http.StatusUnsupportedMediaType},
		{"form body", "application/x-www-form-urlencoded", "", http.StatusUnsupportedMediaType},
		{"foreign origin", "application/json", "http://evil.example", http.StatusForbidden},
		{"foreign origin with plain text", "text/plain", "http://evil.example", http.StatusForbidden},
		{"null origin", "application/json", "null", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/actions/reports/7/status", strings.NewReader(`{"status":"False Alarm"}`))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			f.srv.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	assert.Equal(t, 0, f.api.Hits("POST /update_status/:id"))
	stored, ok := f.api.Report(7)
	require.True(t, ok)
	assert.Equal(t, report.StatusPending, stored.Status)

	req := httptest.NewRequest(http.MethodPost, "/actions/reports/7/status", strings.NewReader(`{"status":"Under Review"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Origin", "http://"+req.Host)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestActions_RateLimited(t *testing.T) {
	f := newFixture(t, Options{RateLimitLimit: 2, RateLimitPeriod: time.Minute})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/actions/announcements", `{"content":""}`).Code)
	}
	w := f.do(t, http.MethodPost, "/actions/announcements", `{"content":""}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestHome_ShowsAnnouncements(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.SeedAnnouncement("Water at the town hall")

	w := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Water at the town hall")
	assert.Contains(t, w.Body.String(), `href="/login"`)
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (p *recordingPublisher) Publish(u Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

func TestState_PublishesRenderedRegions(t *testing.T) {
	pub := &recordingPublisher{}
	state := NewState(pub, logger.Discard())

	state.SetBoard(generator.RenderReports([]report.Report{{ID: 4, Status: report.StatusPending}}))
	state.SetAnnouncements(generator.RenderAnnouncementsUnavailable())

	require.Len(t, pub.updates, 2)
	assert.Equal(t, "reports", pub.updates[0].Type)
	assert.Contains(t, pub.updates[0].HTML, `data-report-id="4"`)
	assert.NotEmpty(t, pub.updates[0].Updated)
	assert.Equal(t, "announcements", pub.updates[1].Type)
	assert.Contains(t, pub.updates[1].HTML, "Could not load announcements.")

	v := state.View()
	assert.True(t, v.Interactive)
	assert.Len(t, v.Board.Pending.Cards, 1)
}

func TestWebsocket_ReceivesBoardUpdates(t *testing.T) {
	f := newFixture(t, Options{})
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.state.SetBoard(generator.RenderReports([]report.Report{{ID: 11, Status: report.StatusUnderReview}}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Equal(t, "reports", u.Type)
	assert.Contains(t, u.HTML, `data-report-id="11"`)
}
