package monitor

import (
	"errors"
	"time"

	"wakectl/internal/orchestrator"
)

// EventType tags a streamed monitor event
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventError    EventType = "error"
	EventFinal    EventType = "final"
)

// Event is the wire form of one Renderer call, used by the status stream
type Event struct {
	Type        EventType                  `json:"type"`
	Poll        int                        `json:"poll,omitempty"`
	Report      *orchestrator.StatusReport `json:"report,omitempty"`
	Error       string                     `json:"error,omitempty"`
	ElapsedMs   int64                      `json:"elapsedMs,omitempty"`
	RemainingMs int64                      `json:"remainingMs,omitempty"`
	Polls       int                        `json:"polls,omitempty"`
	Failures    int                        `json:"failures,omitempty"`
	Interrupted bool                       `json:"interrupted,omitempty"`
}

// EventRenderer turns renderer calls into events passed to Send. The first
// send error is kept and later events are dropped.
type EventRenderer struct {
	Send func(Event) error
	err  error
}

// Err returns the first send error
func (r *EventRenderer) Err() error {
	return r.err
}

func (r *EventRenderer) emit(ev Event) {
	if r.err != nil {
		return
	}
	r.err = r.Send(ev)
}

func (r *EventRenderer) RenderSnapshot(s Snapshot) {
	r.emit(Event{
		Type:        EventSnapshot,
		Poll:        s.Poll,
		Report:      s.Report,
		ElapsedMs:   s.Elapsed.Milliseconds(),
		RemainingMs: s.Remaining.Milliseconds(),
	})
}

func (r *EventRenderer) RenderError(poll int, err error) {
	r.emit(Event{Type: EventError, Poll: poll, Error: err.Error()})
}

func (r *EventRenderer) RenderFinal(s Summary) {
	r.emit(Event{
		Type:        EventFinal,
		Report:      s.Last,
		ElapsedMs:   s.Elapsed.Milliseconds(),
		Polls:       s.Polls,
		Failures:    s.Failures,
		Interrupted: s.Interrupted,
	})
}

// Replay feeds a received event to r and reports whether the stream is done
func Replay(ev Event, r Renderer) (done bool) {
	switch ev.Type {
	case EventSnapshot:
		r.RenderSnapshot(Snapshot{
			Poll:      ev.Poll,
			Report:    ev.Report,
			Elapsed:   time.Duration(ev.ElapsedMs) * time.Millisecond,
			Remaining: time.Duration(ev.RemainingMs) * time.Millisecond,
		})
	case EventError:
		r.RenderError(ev.Poll, errors.New(ev.Error))
	case EventFinal:
		r.RenderFinal(Summary{
			Polls:       ev.Polls,
			Failures:    ev.Failures,
			Last:        ev.Report,
			Elapsed:     time.Duration(ev.ElapsedMs) * time.Millisecond,
			Interrupted: ev.Interrupted,
		})
		return true
	}
	return false
}
