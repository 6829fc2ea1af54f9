package httpapi

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mural-budget/internal/estimate"
)

type scheduledTask struct {
	fn        func()
	cancelled bool
}

// manualScheduler holds debounced tasks until the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*scheduledTask
}

func (m *manualScheduler) Schedule(_ time.Duration, fn func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := &scheduledTask{fn: fn}
	m.tasks = append(m.tasks, task)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		wasPending := !task.cancelled
		task.cancelled = true
		return wasPending
	}
}

func (m *manualScheduler) fire() {
	m.mu.Lock()
	var pending []*scheduledTask
	for _, task := range m.tasks {
		if !task.cancelled {
			pending = append(pending, task)
		}
	}
	m.tasks = nil
	m.mu.Unlock()

	for _, task := range pending {
		task.fn()
	}
}

func (ts *testServer) sessionSnapshot(t *testing.T, method, path, body string, wantStatus int) sessionResponse {
	t.Helper()
	w := ts.do(method, path, body)
	require.Equal(t, wantStatus, w.Code, w.Body.String())

	var resp sessionResponse
	decodeBody(t, w, &resp)
	return resp
}

func TestSessions_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)

	created := ts.sessionSnapshot(t, http.MethodPost, "/api/v1/sessions", "", http.StatusCreated)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Nil(t, created.Estimate)
	assert.False(t, created.Calculating)
	assert.Equal(t, 1, ts.sessions.Len())

	path := "/api/v1/sessions/" + created.ID.String()

	// A far CEP starts a pending recomputation; the estimate still uses the
	// previous factor.
	updated := ts.sessionSnapshot(t, http.MethodPut, path,
		`{"cep": "90010-000", "surfaceType": "parede-interna"}`, http.StatusOK)
	assert.True(t, updated.Calculating)
	require.NotNil(t, updated.Estimate)
	assert.Equal(t, 1.0, updated.Estimate.Factors.Distance)
	assert.InDelta(t, 1200.0, updated.Estimate.FinalValue, 0.001)

	ts.scheduler.fire()

	settled := ts.sessionSnapshot(t, http.MethodGet, path, "", http.StatusOK)
	assert.False(t, settled.Calculating)
	assert.Equal(t, 1.6, settled.Estimate.Factors.Distance)
	assert.InDelta(t, 1920.0, settled.Estimate.FinalValue, 0.001)

	w := ts.do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, ts.sessions.Len())

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, path, "").Code)
}

func TestSessions_LatestPostalCodeWins(t *testing.T) {
	ts := setupTestServer(t)

	created := ts.sessionSnapshot(t, http.MethodPost, "/api/v1/sessions",
		`{"cep": "90010-000", "surfaceType": "muro-cerca"}`, http.StatusCreated)
	assert.True(t, created.Calculating)

	path := "/api/v1/sessions/" + created.ID.String()
	ts.sessionSnapshot(t, http.MethodPut, path, `{"cep": "01310-200", "surfaceType": "muro-cerca"}`, http.StatusOK)

	ts.scheduler.fire()

	settled := ts.sessionSnapshot(t, http.MethodGet, path, "", http.StatusOK)
	assert.False(t, settled.Calculating)
	assert.Equal(t, 1.0, settled.Estimate.Factors.Distance)
}

func TestSessions_BadRequests(t *testing.T) {
	ts := setupTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/sessions/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPost, "/api/v1/sessions", `{"complexity": 42}`).Code)

	created := ts.sessionSnapshot(t, http.MethodPost, "/api/v1/sessions", "", http.StatusCreated)
	assert.Equal(t, http.StatusBadRequest,
		ts.do(http.MethodPut, "/api/v1/sessions/"+created.ID.String(), "").Code)
}

func TestSessionRegistry_Sweep(t *testing.T) {
	now := time.Now()
	r := NewSessionRegistry(time.Second, time.Minute, 100, estimate.WithScheduler((&manualScheduler{}).Schedule))
	r.now = func() time.Time { return now }
	defer r.Close()

	idle, _, err := r.Create()
	require.NoError(t, err)
	active, _, err := r.Create()
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, ok := r.Get(active)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.Sweep())

	_, ok = r.Get(idle)
	assert.False(t, ok)
	_, ok = r.Get(active)
	assert.True(t, ok)
}

func TestSessionRegistry_RunClosesOnCancel(t *testing.T) {
	r := NewSessionRegistry(time.Second, time.Minute, 10)
	_, _, err := r.Create()
	require.NoError(t, err)
	_, _, err = r.Create()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour, zap.NewNop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, r.Len())
}

func TestSessionRegistry_Cap(t *testing.T) {
	now := time.Now()
	r := NewSessionRegistry(time.Second, time.Minute, 2, estimate.WithScheduler((&manualScheduler{}).Schedule))
	r.now = func() time.Time { return now }
	defer r.Close()

	for i := 0; i < 2; i++ {
		_, _, err := r.Create()
		require.NoError(t, err)
	}

	_, _, err := r.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 2, r.Len())

	// Expired sessions make room again.
	now = now.Add(2 * time.Minute)
	_, _, err = r.Create()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestSessions_CreateRejectedWhenFull(t *testing.T) {
	ts := setupTestServer(t)
	for i := 0; i < 100; i++ {
		_, _, err := ts.sessions.Create()
		require.NoError(t, err)
	}

	w := ts.do(http.MethodPost, "/api/v1/sessions", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 100, ts.sessions.Len())
}
