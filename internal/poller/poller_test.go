package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachdehooge/sos-dashboard/internal/fetcher"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/logger"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
	"github.com/Zachdehooge/sos-dashboard/internal/sostest"
)

type recordingDisplay struct {
	mu            sync.Mutex
	boards        []generator.Board
	announcements []generator.AnnouncementList
}

func (d *recordingDisplay) SetBoard(b generator.Board) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boards = append(d.boards, b)
}

func (d *recordingDisplay) SetAnnouncements(a generator.AnnouncementList) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.announcements = append(d.announcements, a)
}

func (d *recordingDisplay) lastBoard() (generator.Board, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.boards) == 0 {
		return generator.Board{}, false
	}
	return d.boards[len(d.boards)-1], true
}

func (d *recordingDisplay) lastAnnouncements() (generator.AnnouncementList, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.announcements) == 0 {
		return generator.AnnouncementList{}, false
	}
	return d.announcements[len(d.announcements)-1], true
}

func loggedInClient(t *testing.T, api *sostest.Server) *fetcher.Client {
	t.Helper()
	c, err := fetcher.NewClient(api.URL, fetcher.WithLogger(logger.Discard()))
	require.NoError(t, err)
	_, err = c.Login(context.Background(), report.Credentials{Username: sostest.Username, Password: sostest.Password})
	require.NoError(t, err)
	return c
}

func TestLoop_DiscardsStaleResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	fetch := func(ctx context.Context) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(entered)
			<-release
			return "old", nil
		}
		return "new", nil
	}

	var applied []string
	loop := NewLoop("test", fetch, func(v string) { applied = append(applied, v) }, nil, logger.Discard())

	slow := make(chan bool)
	go func() { slow <- loop.Tick(context.Background()) }()
	<-entered

	assert.True(t, loop.Tick(context.Background()))
	close(release)
	assert.False(t, <-slow)

	assert.Equal(t, []string{"new"}, applied)
}

func TestLoop_FailureAndPanicEndTickOnly(t *testing.T) {
	var failed error
	boom := errors.New("boom")
	var n int
	loop := NewLoop("test", func(context.Context) (int, error) {
		n++
		switch n {
		case 1:
			return 0, boom
		case 2:
			panic("bad payload")
		}
		return n, nil
	}, func(int) {}, func(err error) { failed = err }, logger.Discard())

	assert.False(t, loop.Tick(context.Background()))
	assert.ErrorIs(t, failed, boom)
	assert.NotPanics(t, func() { assert.False(t, loop.Tick(context.Background())) })
	assert.True(t, loop.Tick(context.Background()))
}

func TestPoller_UnauthorizedShowsLoginPrompt(t *testing.T) {
	api := sostest.New()
	defer api.Close()

	c, err := fetcher.NewClient(api.URL, fetcher.WithLogger(logger.Discard()))
	require.NoError(t, err)

	display := &recordingDisplay{}
	p := New(c, display, Config{}, logger.Discard())

	assert.False(t, p.RefreshReports(context.Background()))
	board, ok := display.lastBoard()
	require.True(t, ok)
	assert.Equal(t, "Please log in to view messages.", board.Notice)

	// Announcements are public.
	assert.True(t, p.RefreshAnnouncements(context.Background()))
	list, ok := display.lastAnnouncements()
	require.True(t, ok)
	assert.Equal(t, "No current announcements.", list.Placeholder)
}

func TestPoller_ServerErrorKeepsLastBoard(t *testing.T) {
	api := sostest.New()
	defer api.Close()
	api.Seed(report.Report{Status: report.StatusPending, Name: "Ann"})

	display := &recordingDisplay{}
	p := New(loggedInClient(t, api), display, Config{}, logger.Discard())

	require.True(t, p.RefreshReports(context.Background()))
	api.FailNextLists(1)
	assert.False(t, p.RefreshReports(context.Background()))

	display.mu.Lock()
	assert.Len(t, display.boards, 1)
	display.mu.Unlock()
}

func TestPoller_StartIsIdempotentAndSurvivesFailures(t *testing.T) {
	api := sostest.New()
	defer api.Close()
	api.Seed(report.Report{Status: report.StatusUnderReview, Name: "Cy"})
	api.SeedAnnouncement("Shelter open")
	api.FailNextLists(1)

	display := &recordingDisplay{}
	p := New(loggedInClient(t, api), display, Config{
		ReportsInterval:       time.Second,
		AnnouncementsInterval: time.Second,
	}, logger.Discard())

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Started())
	defer p.Stop()

	p.WaitInitial()
	_, ok := display.lastBoard()
	assert.False(t, ok, "first reports tick failed, nothing to show yet")

	list, ok := display.lastAnnouncements()
	require.True(t, ok)
	require.Len(t, list.Items, 1)

	assert.Eventually(t, func() bool {
		board, ok := display.lastBoard()
		return ok && len(board.UnderReview.Cards) == 1
	}, 4*time.Second, 50*time.Millisecond)

	assert.GreaterOrEqual(t, api.Hits("GET /get_sos_messages"), 2)
}

func TestPoller_StopHaltsSchedule(t *testing.T) {
	api := sostest.New()
	defer api.Close()

	display := &recordingDisplay{}
	p := New(loggedInClient(t, api), display, Config{
		ReportsInterval:       time.Second,
		AnnouncementsInterval: time.Second,
	}, logger.Discard())

	require.NoError(t, p.Start(context.Background()))
	p.WaitInitial()
	p.Stop()
	assert.False(t, p.Started())

	before := api.Hits("GET /get_sos_messages")
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, before, api.Hits("GET /get_sos_messages"))

	p.Stop()
}
