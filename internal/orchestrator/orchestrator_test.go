package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wakectl/internal/errors"
	"wakectl/internal/probe"
	"wakectl/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	*httptest.Server
	status atomic.Int32
	hits   atomic.Int32
	mu     sync.Mutex
	seen   []time.Time
}

func newFakeService(t *testing.T, status int) *fakeService {
	t.Helper()
	f := &fakeService{}
	f.status.Store(int32(status))
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.mu.Lock()
		f.seen = append(f.seen, time.Now())
		f.mu.Unlock()
		w.WriteHeader(int(f.status.Load()))
		_, _ = w.Write([]byte(`{"uptime": 7}`))
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeService) firstHit() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return time.Time{}
	}
	return f.seen[0]
}

type entry struct {
	name string
	url  string
	deps []string
}

func buildStore(t *testing.T, entries ...entry) *registry.Store {
	t.Helper()
	var b strings.Builder
	b.WriteString("services:\n  dev:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "    %s:\n      url: %q\n      healthPath: /health\n", e.name, e.url)
		if len(e.deps) > 0 {
			fmt.Fprintf(&b, "      dependsOn: [%s]\n", strings.Join(e.deps, ", "))
		}
	}
	reg, err := registry.LoadBytes([]byte(b.String()))
	require.NoError(t, err)
	return registry.NewStaticStore(reg)
}

func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newTestOrchestrator(store *registry.Store) *Orchestrator {
	return New(store, nil, Options{
		WakeTimeout:   time.Second,
		StatusTimeout: time.Second,
		PollInterval:  20 * time.Millisecond,
	})
}

func TestWakeAllLive(t *testing.T) {
	auth := newFakeService(t, http.StatusOK)
	payment := newFakeService(t, http.StatusOK)
	consumer := newFakeService(t, http.StatusNotFound)

	o := newTestOrchestrator(buildStore(t,
		entry{"consumer", consumer.URL, []string{"payment"}},
		entry{"auth", auth.URL, nil},
		entry{"payment", payment.URL, []string{"auth"}},
	))

	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})

	require.True(t, outcome.Success, outcome.Error)
	assert.NotEmpty(t, outcome.ID)
	require.Len(t, outcome.Services, 3)
	assert.Equal(t, "auth", outcome.Services[0].Service)
	assert.Equal(t, "payment", outcome.Services[1].Service)
	assert.Equal(t, "consumer", outcome.Services[2].Service)
	for _, r := range outcome.Services {
		assert.Equal(t, probe.StateLive, r.State)
		assert.Equal(t, 1, r.Attempts)
		assert.False(t, r.LastWake.IsZero())
	}

	// probes happen sequentially in wake order
	assert.False(t, payment.firstHit().Before(auth.firstHit()))
	assert.False(t, consumer.firstHit().Before(payment.firstHit()))
}

func TestWakeOneFailingService(t *testing.T) {
	healthy := []*fakeService{
		newFakeService(t, http.StatusOK),
		newFakeService(t, http.StatusOK),
		newFakeService(t, http.StatusOK),
	}
	broken := newFakeService(t, http.StatusInternalServerError)

	o := newTestOrchestrator(buildStore(t,
		entry{"a", healthy[0].URL, nil},
		entry{"b", healthy[1].URL, []string{"a"}},
		entry{"broken", broken.URL, []string{"a"}},
		entry{"c", healthy[2].URL, nil},
	))

	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})

	assert.False(t, outcome.Success)
	require.Len(t, outcome.Services, 4)

	counts := map[probe.State]int{}
	for _, r := range outcome.Services {
		counts[r.State]++
		if r.Service == "broken" {
			assert.Equal(t, probe.StateWaking, r.State)
			assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
		}
	}
	assert.Equal(t, 3, counts[probe.StateLive])
	assert.Equal(t, 1, counts[probe.StateWaking])

	assert.Equal(t, probe.StateWaking, o.states.Get("dev", "broken").State)
}

func TestWakeUnreachableServiceReportsFailed(t *testing.T) {
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(hung.Close)

	tests := []struct {
		name string
		url  string
	}{
		{name: "connection refused", url: deadURL()},
		{name: "timeout", url: hung.URL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrchestrator(buildStore(t, entry{"gone", tt.url, nil}))

			outcome := o.Wake(context.Background(), registry.NamesTarget("gone"), "dev",
				WakeOptions{Timeout: 200 * time.Millisecond})

			assert.False(t, outcome.Success)
			require.Len(t, outcome.Services, 1)
			assert.Equal(t, probe.StateFailed, outcome.Services[0].State)
			assert.NotEmpty(t, outcome.Services[0].Error)

			// the recorded state is what the classifier decided
			e := o.states.Get("dev", "gone")
			assert.Equal(t, probe.StateDead, e.State)
			assert.NotNil(t, e.LastWake)
			assert.NotNil(t, e.LastProbe)
		})
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestWakeWaitStopsWhenBudgetSpentDuringPause(t *testing.T) {
	var hits atomic.Int32
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		<-r.Context().Done()
	}))
	t.Cleanup(svc.Close)

	o := newTestOrchestrator(buildStore(t, entry{"slow-start", svc.URL, nil}))
	clock := &fakeClock{now: time.Now()}
	o.now = clock.Now
	o.after = func(d time.Duration) <-chan time.Time {
		// the pause overshoots the service budget
		clock.Advance(2 * time.Second)
		ch := make(chan time.Time, 1)
		ch <- clock.Now()
		return ch
	}

	start := time.Now()
	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{
		Wait:         true,
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, outcome.Success)
	require.Len(t, outcome.Services, 1)
	assert.Equal(t, 1, outcome.Services[0].Attempts)
	assert.Equal(t, probe.StateWaking, outcome.Services[0].State)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWakeCycleIsReportedInOutcome(t *testing.T) {
	a := newFakeService(t, http.StatusOK)
	o := newTestOrchestrator(buildStore(t,
		entry{"a", a.URL, []string{"b"}},
		entry{"b", a.URL, []string{"a"}},
	))

	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})

	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Services)
	assert.Equal(t, string(errors.ErrCircularDependency), outcome.ErrorCode)
	assert.Contains(t, outcome.Error, "Circular dependency")
	assert.Zero(t, a.hits.Load())
}

func TestWakeUnknownServiceIsReportedInOutcome(t *testing.T) {
	o := newTestOrchestrator(buildStore(t, entry{"a", deadURL(), nil}))

	outcome := o.Wake(context.Background(), registry.NamesTarget("nope"), "dev", WakeOptions{})
	assert.False(t, outcome.Success)
	assert.Equal(t, string(errors.ErrServiceNotFound), outcome.ErrorCode)
}

func TestWakeEmptyOrderSucceeds(t *testing.T) {
	reg, err := registry.LoadBytes([]byte("services:\n  dev: {}\n"))
	require.NoError(t, err)
	o := newTestOrchestrator(registry.NewStaticStore(reg))

	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})
	assert.True(t, outcome.Success)
	assert.NotNil(t, outcome.Services)
	assert.Empty(t, outcome.Services)
}

func TestWakeWaitRetriesUntilLive(t *testing.T) {
	svc := newFakeService(t, http.StatusServiceUnavailable)
	o := newTestOrchestrator(buildStore(t, entry{"slow-start", svc.URL, nil}))

	go func() {
		for svc.hits.Load() < 2 {
			time.Sleep(5 * time.Millisecond)
		}
		svc.status.Store(http.StatusOK)
	}()

	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{
		Wait:         true,
		Timeout:      2 * time.Second,
		PollInterval: 10 * time.Millisecond,
	})

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, probe.StateLive, outcome.Services[0].State)
	assert.GreaterOrEqual(t, outcome.Services[0].Attempts, 2)
}

func TestWakeWaitGivesUpAfterTimeout(t *testing.T) {
	svc := newFakeService(t, http.StatusServiceUnavailable)
	o := newTestOrchestrator(buildStore(t, entry{"stuck", svc.URL, nil}))

	start := time.Now()
	outcome := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{
		Wait:         true,
		Timeout:      150 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, outcome.Success)
	assert.Equal(t, probe.StateWaking, outcome.Services[0].State)
	assert.Greater(t, outcome.Services[0].Attempts, 1)
}

func TestWakeOverwritesLastWake(t *testing.T) {
	svc := newFakeService(t, http.StatusOK)
	o := newTestOrchestrator(buildStore(t, entry{"a", svc.URL, nil}))

	first := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})
	time.Sleep(5 * time.Millisecond)
	second := o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})

	assert.True(t, second.Services[0].LastWake.After(first.Services[0].LastWake))
	assert.Equal(t, second.Services[0].LastWake, *o.states.Get("dev", "a").LastWake)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetStatus(t *testing.T) {
	live := newFakeService(t, http.StatusOK)
	starting := newFakeService(t, http.StatusServiceUnavailable)
	o := newTestOrchestrator(buildStore(t,
		entry{"live", live.URL, nil},
		entry{"starting", starting.URL, []string{"live"}},
		entry{"gone", deadURL(), nil},
	))

	assert.Equal(t, probe.StateUnknown, o.states.Get("dev", "live").State)

	report, err := o.GetStatus(context.Background(), registry.AllTarget(), "dev")
	require.NoError(t, err)
	require.Len(t, report.Services, 3)

	assert.Equal(t, "live", report.Services[0].Service)
	assert.Equal(t, probe.StateLive, report.Services[0].State)
	assert.Equal(t, probe.StateWaking, report.Services[1].State)
	assert.Equal(t, probe.StateDead, report.Services[2].State)

	assert.Equal(t, 1, report.Summary[probe.StateLive])
	assert.Equal(t, 1, report.Summary[probe.StateWaking])
	assert.Equal(t, 1, report.Summary[probe.StateDead])
	assert.Equal(t, 0, report.Summary[probe.StateFailed])
	assert.Equal(t, 3, report.Summary.Total())
	assert.False(t, report.Summary.AllLive())

	// status records state but never a wake time
	e := o.states.Get("dev", "starting")
	assert.Equal(t, probe.StateWaking, e.State)
	assert.Nil(t, e.LastWake)
	assert.NotNil(t, e.LastProbe)
}

func TestGetStatusSingleServiceDoesNotFollowDependencies(t *testing.T) {
	dep := newFakeService(t, http.StatusOK)
	top := newFakeService(t, http.StatusOK)
	o := newTestOrchestrator(buildStore(t,
		entry{"dep", dep.URL, nil},
		entry{"top", top.URL, []string{"dep"}},
	))

	report, err := o.GetStatus(context.Background(), registry.NamesTarget("top"), "dev")
	require.NoError(t, err)
	require.Len(t, report.Services, 1)
	assert.Zero(t, dep.hits.Load())

	_, err = o.GetStatus(context.Background(), registry.NamesTarget("nope"), "dev")
	assert.True(t, errors.HasCode(err, errors.ErrServiceNotFound))
}

func TestGetHealthIsStrictAndReadOnly(t *testing.T) {
	ok := newFakeService(t, http.StatusOK)
	unavailable := newFakeService(t, http.StatusServiceUnavailable)
	o := newTestOrchestrator(buildStore(t,
		entry{"ok", ok.URL, nil},
		entry{"unavailable", unavailable.URL, []string{"ok"}},
	))

	report, err := o.GetHealth(context.Background(), registry.AllTarget(), "dev")
	require.NoError(t, err)
	require.Len(t, report.Services, 2)
	assert.False(t, report.Healthy)

	okHealth := report.Services[0]
	assert.Equal(t, probe.StateLive, okHealth.State)
	assert.True(t, okHealth.Healthy)
	assert.Equal(t, http.StatusOK, okHealth.StatusCode)
	assert.Equal(t, float64(7), okHealth.Uptime)
	assert.Equal(t, []string{"unavailable"}, okHealth.Dependents)

	bad := report.Services[1]
	assert.Equal(t, probe.StateFailed, bad.State)
	assert.Equal(t, []string{"ok"}, bad.DependsOn)

	assert.Empty(t, o.States("dev"))
}

func TestConcurrentWakeAndStatus(t *testing.T) {
	svc := newFakeService(t, http.StatusOK)
	o := newTestOrchestrator(buildStore(t,
		entry{"a", svc.URL, nil},
		entry{"b", svc.URL, []string{"a"}},
	))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o.Wake(context.Background(), registry.AllTarget(), "dev", WakeOptions{})
		}()
		go func() {
			defer wg.Done()
			_, err := o.GetStatus(context.Background(), registry.AllTarget(), "dev")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, e := range o.States("dev") {
		assert.Equal(t, probe.StateLive, e.State)
	}
}

func TestWakeCancelledContext(t *testing.T) {
	svc := newFakeService(t, http.StatusOK)
	o := newTestOrchestrator(buildStore(t, entry{"a", svc.URL, nil}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := o.Wake(ctx, registry.AllTarget(), "dev", WakeOptions{})
	assert.False(t, outcome.Success)
	assert.Equal(t, string(errors.ErrCancelled), outcome.ErrorCode)
	assert.Empty(t, outcome.Services)
}

func TestStateStore(t *testing.T) {
	s := NewStateStore()
	assert.Equal(t, probe.StateUnknown, s.Get("dev", "a").State)

	now := time.Now()
	s.MarkWaking("dev", "a", now)
	assert.Equal(t, probe.StateDead, s.Get("dev", "a").State)

	s.Record("dev", "a", probe.StateLive, now.Add(time.Second), "")
	s.Record("prod", "a", probe.StateFailed, now, "boom")

	got := s.Get("dev", "a")
	assert.Equal(t, probe.StateLive, got.State)
	assert.Equal(t, now, *got.LastWake)

	assert.Len(t, s.Snapshot("dev"), 1)
	assert.Len(t, s.Snapshot(""), 2)

	s.Reset()
	assert.Empty(t, s.Snapshot(""))
}
