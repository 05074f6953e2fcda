// Package learn implements the stateful "learn" protocol: watch a live
// stream of control-surface events and decide when a stable, reproducible
// source has been identified.
package learn

import (
	"time"

	"github.com/james-see/midilearn/pkg/source"
)

// State is the learn session state. Learned, TimedOut and Cancelled are
// terminal; a session is single-use and a new learn attempt constructs a
// new session.
type State int

const (
	// StateListening waits for the first classifiable event.
	StateListening State = iota
	// StateStabilizing accumulates a multi-message composite sequence.
	StateStabilizing
	// StateLearned holds a complete, concrete source.
	StateLearned
	// StateTimedOut means the session deadline elapsed first.
	StateTimedOut
	// StateCancelled means the caller aborted the session.
	StateCancelled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateStabilizing:
		return "stabilizing"
	case StateLearned:
		return "learned"
	case StateTimedOut:
		return "timed-out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateLearned || s == StateTimedOut || s == StateCancelled
}

// Filter selects which event categories a session considers.
type Filter int

const (
	// FilterMIDI admits short, sysex and parameter-number MIDI events.
	FilterMIDI Filter = 1 << iota
	// FilterOSC admits OSC events.
	FilterOSC
)

// FilterAll admits every category.
const FilterAll = FilterMIDI | FilterOSC

// Session observes incoming events until one source is identified. It
// performs no I/O and never sleeps: deadlines are judged against event
// timestamps and the clock values handed to PollTimeout. Sessions are not
// internally synchronized; a single goroutine must drive Feed, Cancel and
// PollTimeout (a mutex around the whole session suffices if it has to
// cross goroutines).
type Session struct {
	filter      Filter
	state       State
	deadline    time.Time
	hasDeadline bool
	events      uint64
	learned     source.Source
	pn          *source.PNAssembler
}

// Start begins a learn session. A zero timeout means no hard deadline; now
// anchors the deadline when a timeout is given.
func Start(filter Filter, timeout time.Duration, now time.Time) *Session {
	s := &Session{
		filter: filter,
		state:  StateListening,
		pn:     source.NewPNAssembler(source.DefaultCompositeTimeout),
	}
	if timeout > 0 {
		s.deadline = now.Add(timeout)
		s.hasDeadline = true
	}
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Events returns how many events the session has observed.
func (s *Session) Events() uint64 {
	return s.events
}

// Result returns the learned source once the session reached StateLearned.
func (s *Session) Result() (source.Source, bool) {
	if s.state != StateLearned {
		return source.Source{}, false
	}
	return s.learned, true
}

// Cancel aborts the session. It always wins: any non-terminal state moves
// to StateCancelled immediately and buffered composite progress is
// discarded. Cancelling a terminal session is a no-op.
func (s *Session) Cancel() State {
	if !s.state.Terminal() {
		s.state = StateCancelled
	}
	return s.state
}

// PollTimeout drives time forward without an event. The caller owns the
// clock; the session only compares.
func (s *Session) PollTimeout(now time.Time) State {
	if s.state.Terminal() {
		return s.state
	}
	s.pn.Poll(now)
	if s.hasDeadline && now.After(s.deadline) {
		s.state = StateTimedOut
	}
	return s.state
}

// Feed offers one observed event to the session and returns the resulting
// state. Events outside the category filter are ignored. Single-message
// categories learn on the first classifiable event; parameter-number CCs
// stabilize until their sequence completes, with an out-of-sequence CC
// silently restarting detection. If another category completes while a
// composite is stabilizing, that category wins and the partial evidence is
// dropped.
func (s *Session) Feed(ev source.RawEvent) State {
	if s.state.Terminal() {
		return s.state
	}
	if s.hasDeadline && ev.Time.After(s.deadline) {
		s.state = StateTimedOut
		return s.state
	}
	if !s.admits(ev) {
		return s.state
	}
	s.events++

	if s.routeToComposite(ev) {
		msg, res := s.pn.Feed(ev, false)
		switch res {
		case source.PNComplete:
			src := source.FromPNMessage(msg)
			src.Hits = 1
			s.learn(src)
		case source.PNPending, source.PNIgnored:
			// PNIgnored here is a foreign CC that invalidated the
			// buffer; detection stays armed.
			s.state = StateStabilizing
		}
		return s.state
	}

	if src, ok := source.Observe(ev); ok {
		src.Hits = 1
		s.learn(src)
	}
	return s.state
}

// learn commits the winning source.
func (s *Session) learn(src source.Source) {
	s.learned = src
	s.state = StateLearned
}

// routeToComposite decides whether a CC belongs to parameter-number
// detection. Once stabilizing, every CC goes to the assembler so a partial
// sequence cannot be shadowed by learning a stray CC as its own source.
func (s *Session) routeToComposite(ev source.RawEvent) bool {
	if ev.Kind != source.EventShort || ev.StatusType() != source.StatusControlChange {
		return false
	}
	if s.state == StateStabilizing {
		return true
	}
	return source.IsParameterNumberCC(ev.Data1)
}

func (s *Session) admits(ev source.RawEvent) bool {
	switch ev.Kind {
	case source.EventOSC:
		return s.filter&FilterOSC != 0
	default:
		return s.filter&FilterMIDI != 0
	}
}
