package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wakectl/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		raw       State
		threshold State
	}{
		{name: "200", status: http.StatusOK, raw: StateLive, threshold: StateLive},
		{name: "204", status: http.StatusNoContent, raw: StateLive, threshold: StateLive},
		{name: "302", status: http.StatusFound, raw: StateLive, threshold: StateLive},
		{name: "404", status: http.StatusNotFound, raw: StateLive, threshold: StateLive},
		{name: "500", status: http.StatusInternalServerError, raw: StateFailed, threshold: StateWaking},
		{name: "503", status: http.StatusServiceUnavailable, raw: StateFailed, threshold: StateWaking},
	}

	p := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := statusServer(t, tt.status, `{}`)

			result := p.Probe(context.Background(), srv.URL+"/health", time.Second)
			require.NoError(t, result.Err)
			assert.Equal(t, tt.status, result.StatusCode)
			assert.Equal(t, tt.raw, Classify(result))
			assert.Equal(t, tt.threshold, ClassifyThreshold(result, 5*time.Second))
		})
	}
}

func TestProbeTimeoutIsDead(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	start := time.Now()
	result := New(nil).Probe(context.Background(), srv.URL+"/health", 50*time.Millisecond)

	assert.Error(t, result.Err)
	assert.False(t, result.Exceptional)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StateDead, Classify(result))
	assert.Equal(t, StateDead, ClassifyThreshold(result, 5*time.Second))
}

func TestProbeConnectionRefusedIsDead(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	result := New(nil).Probe(context.Background(), "http://"+addr+"/health", time.Second)
	assert.Error(t, result.Err)
	assert.Equal(t, StateDead, Classify(result))
}

func TestProbeMalformedURLIsExceptional(t *testing.T) {
	result := New(nil).Probe(context.Background(), "http://bad host/health", time.Second)
	assert.Error(t, result.Err)
	assert.True(t, result.Exceptional)
	assert.Equal(t, StateDead, Classify(result))
}

func TestSlowResponseIsWaking(t *testing.T) {
	result := Result{StatusCode: http.StatusOK, Duration: 6 * time.Second}
	assert.Equal(t, StateLive, Classify(result))
	assert.Equal(t, StateWaking, ClassifyThreshold(result, 5*time.Second))
	assert.Equal(t, StateLive, ClassifyThreshold(result, 0))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	live := New(nil).Probe(context.Background(), srv.URL, time.Second)
	assert.Equal(t, StateWaking, ClassifyThreshold(live, 10*time.Millisecond))
	assert.Equal(t, StateLive, ClassifyThreshold(live, time.Second))
}

func TestProbeReadsUptime(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `{"status":"ok","uptime":1234.5}`)
	result := New(nil).Probe(context.Background(), srv.URL, time.Second)
	assert.Equal(t, 1234.5, result.Uptime)

	srv = statusServer(t, http.StatusOK, `not json`)
	result = New(nil).Probe(context.Background(), srv.URL, time.Second)
	assert.Nil(t, result.Uptime)
	assert.Equal(t, StateLive, Classify(result))
}

func TestProbeHonoursCancelledContext(t *testing.T) {
	srv := statusServer(t, http.StatusOK, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(nil).Probe(ctx, srv.URL, time.Second)
	assert.Error(t, result.Err)
	assert.Equal(t, StateDead, Classify(result))
}

func TestStateValid(t *testing.T) {
	assert.True(t, StateLive.Valid())
	assert.True(t, StateUnknown.Valid())
	assert.False(t, State("ASLEEP").Valid())
}

type deadlineDoer struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineDoer) Do(req *http.Request) (*http.Response, error) {
	d.deadline, d.ok = req.Context().Deadline()
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestProbeNonPositiveTimeoutIsStillBounded(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		doer := &deadlineDoer{}
		start := time.Now()

		result := New(doer).Probe(context.Background(), "http://localhost/health", timeout)

		require.NoError(t, result.Err)
		require.True(t, doer.ok, "timeout %s", timeout)
		assert.WithinDuration(t, start.Add(constants.DefaultWakeTimeout), doer.deadline, time.Second)
	}
}
