package monitor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wakectl/internal/orchestrator"
	"wakectl/internal/probe"
	"wakectl/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetStatus(ctx context.Context, target registry.Target, env string) (*orchestrator.StatusReport, error) {
	args := m.Called(ctx, target, env)
	report, _ := args.Get(0).(*orchestrator.StatusReport)
	return report, args.Error(1)
}

type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	errors    []int
	final     *Summary
}

func (r *recorder) RenderSnapshot(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) RenderError(poll int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, poll)
}

func (r *recorder) RenderFinal(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.final = &s
}

func liveReport() *orchestrator.StatusReport {
	return &orchestrator.StatusReport{
		Environment: "dev",
		Services: []orchestrator.ServiceStatus{
			{Service: "auth", State: probe.StateLive},
		},
		Summary:   orchestrator.Summary{probe.StateLive: 1},
		Timestamp: time.Now(),
	}
}

func TestRunPollsUntilBudgetExpires(t *testing.T) {
	src := &mockSource{}
	src.On("GetStatus", mock.Anything, registry.AllTarget(), "dev").Return(liveReport(), nil)

	rec := &recorder{}
	summary := Run(context.Background(), src, Options{
		Target:      registry.AllTarget(),
		Environment: "dev",
		Interval:    20 * time.Millisecond,
		Duration:    110 * time.Millisecond,
	}, rec)

	assert.False(t, summary.Interrupted)
	assert.Zero(t, summary.Failures)
	// one immediate poll, a few ticks, and one after the budget
	assert.GreaterOrEqual(t, summary.Polls, 3)
	assert.LessOrEqual(t, summary.Polls, 8)
	require.NotNil(t, summary.Last)
	assert.Equal(t, summary.Polls, len(rec.snapshots))
	require.NotNil(t, rec.final)
	assert.Equal(t, summary.Polls, rec.final.Polls)
	assert.GreaterOrEqual(t, summary.Elapsed, 110*time.Millisecond)

	for i, s := range rec.snapshots {
		assert.Equal(t, i+1, s.Poll)
	}
}

func TestRunSkipsTickAtDeadline(t *testing.T) {
	ticks := make(chan time.Time)
	expired := make(chan time.Time)
	origTicker, origTimer := newTicker, newTimer
	newTicker = func(time.Duration) (<-chan time.Time, func()) { return ticks, func() {} }
	newTimer = func(time.Duration) (<-chan time.Time, func()) { return expired, func() {} }
	t.Cleanup(func() { newTicker, newTimer = origTicker, origTimer })

	src := &mockSource{}
	src.On("GetStatus", mock.Anything, registry.AllTarget(), "dev").Return(liveReport(), nil)

	done := make(chan Summary, 1)
	go func() {
		done <- Run(context.Background(), src, Options{
			Target:      registry.AllTarget(),
			Environment: "dev",
			Interval:    10 * time.Millisecond,
			Duration:    30 * time.Millisecond,
		}, &recorder{})
	}()

	// tick and timer both due once the budget is spent
	time.Sleep(50 * time.Millisecond)
	ticks <- time.Now()
	expired <- time.Now()

	summary := <-done
	assert.False(t, summary.Interrupted)
	assert.Equal(t, 2, summary.Polls)
	src.AssertNumberOfCalls(t, "GetStatus", 2)
}

func TestRunContinuesAfterPollFailure(t *testing.T) {
	src := &mockSource{}
	src.On("GetStatus", mock.Anything, mock.Anything, "dev").
		Return(nil, fmt.Errorf("connection refused")).Once()
	src.On("GetStatus", mock.Anything, mock.Anything, "dev").Return(liveReport(), nil)

	rec := &recorder{}
	summary := Run(context.Background(), src, Options{
		Target:      registry.NamesTarget("auth"),
		Environment: "dev",
		Interval:    10 * time.Millisecond,
		Duration:    50 * time.Millisecond,
	}, rec)

	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, []int{1}, rec.errors)
	assert.Greater(t, summary.Polls, 1)
	assert.NotNil(t, summary.Last)
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &mockSource{}
	src.On("GetStatus", mock.Anything, mock.Anything, mock.Anything).Return(liveReport(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	rec := &recorder{}
	start := time.Now()
	summary := Run(ctx, src, Options{
		Environment: "dev",
		Interval:    10 * time.Millisecond,
		Duration:    time.Minute,
	}, rec)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, summary.Interrupted)
	require.NotNil(t, rec.final)
	assert.True(t, rec.final.Interrupted)
	assert.GreaterOrEqual(t, summary.Polls, 1)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, 10*time.Second, opts.Interval)
	assert.Equal(t, 5*time.Minute, opts.Duration)
	assert.Equal(t, "dev", opts.Environment)
}

func TestEventRendererReplay(t *testing.T) {
	var events []Event
	er := &EventRenderer{Send: func(ev Event) error {
		events = append(events, ev)
		return nil
	}}

	report := liveReport()
	er.RenderSnapshot(Snapshot{Poll: 1, Report: report, Elapsed: time.Second, Remaining: 2 * time.Second})
	er.RenderError(2, fmt.Errorf("refused"))
	er.RenderFinal(Summary{Polls: 2, Failures: 1, Last: report})
	require.NoError(t, er.Err())
	require.Len(t, events, 3)

	rec := &recorder{}
	assert.False(t, Replay(events[0], rec))
	assert.False(t, Replay(events[1], rec))
	assert.True(t, Replay(events[2], rec))

	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, 2*time.Second, rec.snapshots[0].Remaining)
	assert.Equal(t, []int{2}, rec.errors)
	require.NotNil(t, rec.final)
	assert.Equal(t, 1, rec.final.Failures)
	assert.Same(t, report, rec.final.Last)
}

func TestEventRendererStopsAfterSendError(t *testing.T) {
	calls := 0
	er := &EventRenderer{Send: func(Event) error {
		calls++
		return fmt.Errorf("closed")
	}}

	er.RenderError(1, fmt.Errorf("x"))
	er.RenderError(2, fmt.Errorf("y"))
	assert.Equal(t, 1, calls)
	assert.EqualError(t, er.Err(), "closed")
}
