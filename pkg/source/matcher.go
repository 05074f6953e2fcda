package source

import (
	"errors"
	"strings"
	"time"
)

// ErrTypeMismatch is returned when an OSC message reaches a source whose
// address matches but whose argument has the wrong runtime type. Callers
// treat it as "no match", not as a system failure.
var ErrTypeMismatch = errors.New("osc argument type mismatch")

// MatchResult is the outcome of offering an event to a source.
type MatchResult int

const (
	// NoMatch means the event does not belong to the source.
	NoMatch MatchResult = iota
	// Pending means the event is part of a multi-message sequence that
	// has not completed yet; more messages are needed.
	Pending
	// Matched means the event (or the sequence it completed) belongs to
	// the source and a payload was extracted.
	Matched
)

// Domain tags the numeric domain of an extracted payload.
type Domain int

const (
	// Domain7Bit is an integer in 0..127.
	Domain7Bit Domain = iota
	// Domain14Bit is an integer in 0..16383.
	Domain14Bit
	// DomainFloat is a float, nominally in [0, 1].
	DomainFloat
	// DomainBool is an on/off payload.
	DomainBool
)

// Payload is the raw value extracted from a matched event, before
// normalization. Dir is nonzero only for parameter-number
// increment/decrement messages.
type Payload struct {
	Domain Domain
	Value  uint16
	Float  float64
	Bool   bool
	Dir    int
}

type cc14Channel struct {
	haveMSB bool
	msbCC   byte
	msbVal  byte
	last    time.Time
}

// Matcher decides whether concrete events belong to a source and extracts
// their raw payloads. Matching single-message sources is pure; the matcher
// exists as a type because 14-bit CC pairs and (N)RPN sequences span
// multiple messages and need a rolling per-channel buffer. Use one Matcher
// per event stream and feed it from a single goroutine; matching against
// different sources may share a Matcher since buffers are keyed by channel.
type Matcher struct {
	pn      *PNAssembler
	cc14    [16]cc14Channel
	timeout time.Duration
}

// NewMatcher creates a matcher with the default composite timeout.
func NewMatcher() *Matcher {
	return NewMatcherWithTimeout(DefaultCompositeTimeout)
}

// NewMatcherWithTimeout creates a matcher with a custom inter-message
// timeout for composite sequences. Zero disables expiry.
func NewMatcherWithTimeout(timeout time.Duration) *Matcher {
	return &Matcher{pn: NewPNAssembler(timeout), timeout: timeout}
}

// Match offers an event to a source. A category mismatch (e.g. a sysex
// event against a control-change source) is NoMatch, never an error; the
// only error is ErrTypeMismatch for OSC argument types, which callers also
// treat as no-match.
func (m *Matcher) Match(src *Source, ev RawEvent) (Payload, MatchResult, error) {
	switch src.Kind {
	case KindParameterNumber:
		return m.matchParameterNumber(src, ev)
	case KindControlChange:
		if src.Is14Bit {
			return m.matchControlChange14(src, ev)
		}
		return matchSingle(src, ev)
	default:
		return matchSingle(src, ev)
	}
}

// Poll expires stale composite buffers against the caller's clock.
func (m *Matcher) Poll(now time.Time) {
	m.pn.Poll(now)
	for i := range m.cc14 {
		st := &m.cc14[i]
		if st.haveMSB && m.timeout > 0 && now.Sub(st.last) > m.timeout {
			*st = cc14Channel{}
		}
	}
}

func (m *Matcher) matchParameterNumber(src *Source, ev RawEvent) (Payload, MatchResult, error) {
	if ev.Kind != EventShort || ev.StatusType() != StatusControlChange {
		return Payload{}, NoMatch, nil
	}
	if !src.Channel.Matches(ev.Channel()) {
		return Payload{}, NoMatch, nil
	}
	msg, res := m.pn.Feed(ev, src.Is14Bit)
	switch res {
	case PNPending:
		return Payload{}, Pending, nil
	case PNComplete:
		if !src.Number.Matches(msg.Number) || src.Registered != msg.Registered {
			return Payload{}, NoMatch, nil
		}
		p := Payload{Value: msg.Value, Dir: msg.Dir}
		if msg.Is14Bit {
			p.Domain = Domain14Bit
		} else {
			p.Domain = Domain7Bit
		}
		return p, Matched, nil
	default:
		return Payload{}, NoMatch, nil
	}
}

func (m *Matcher) matchControlChange14(src *Source, ev RawEvent) (Payload, MatchResult, error) {
	if ev.Kind != EventShort || ev.StatusType() != StatusControlChange {
		return Payload{}, NoMatch, nil
	}
	if !src.Channel.Matches(ev.Channel()) {
		return Payload{}, NoMatch, nil
	}
	st := &m.cc14[ev.Channel()]
	if st.haveMSB && m.timeout > 0 && ev.Time.Sub(st.last) > m.timeout {
		*st = cc14Channel{}
	}
	cc := ev.Data1
	switch {
	case cc < 32:
		// MSB parks until its LSB partner arrives. It stays parked after
		// completion so LSB-only updates keep working.
		st.haveMSB = true
		st.msbCC = cc
		st.msbVal = ev.Data2
		st.last = ev.Time
		if src.Controller.Matches(cc) {
			return Payload{}, Pending, nil
		}
		return Payload{}, NoMatch, nil
	case cc < 64:
		msb := cc - 32
		if !st.haveMSB || st.msbCC != msb {
			return Payload{}, NoMatch, nil
		}
		st.last = ev.Time
		if !src.Controller.Matches(msb) {
			return Payload{}, NoMatch, nil
		}
		value := uint16(st.msbVal)<<7 | uint16(ev.Data2)
		return Payload{Domain: Domain14Bit, Value: value}, Matched, nil
	default:
		return Payload{}, NoMatch, nil
	}
}

// matchSingle handles all variants whose logical value fits in one event.
func matchSingle(src *Source, ev RawEvent) (Payload, MatchResult, error) {
	switch src.Kind {
	case KindNoteOn:
		if !ev.IsNoteOn() || !src.Channel.Matches(ev.Channel()) || !src.Note.Matches(ev.Data1) {
			return Payload{}, NoMatch, nil
		}
		return Payload{Domain: Domain7Bit, Value: uint16(ev.Data2)}, Matched, nil
	case KindNoteOff:
		if !ev.IsNoteOff() || !src.Channel.Matches(ev.Channel()) || !src.Note.Matches(ev.Data1) {
			return Payload{}, NoMatch, nil
		}
		// A note-off always extracts zero, regardless of release velocity.
		return Payload{Domain: Domain7Bit, Value: 0}, Matched, nil
	case KindControlChange:
		if ev.Kind != EventShort || ev.StatusType() != StatusControlChange ||
			!src.Channel.Matches(ev.Channel()) || !src.Controller.Matches(ev.Data1) {
			return Payload{}, NoMatch, nil
		}
		return Payload{Domain: Domain7Bit, Value: uint16(ev.Data2)}, Matched, nil
	case KindProgramChange:
		if ev.Kind != EventShort || ev.StatusType() != StatusProgramChange ||
			!src.Channel.Matches(ev.Channel()) || !src.Program.Matches(ev.Data1) {
			return Payload{}, NoMatch, nil
		}
		return Payload{Domain: Domain7Bit, Value: uint16(ev.Data1)}, Matched, nil
	case KindPitchBend:
		if ev.Kind != EventShort || ev.StatusType() != StatusPitchBend ||
			!src.Channel.Matches(ev.Channel()) {
			return Payload{}, NoMatch, nil
		}
		value := uint16(ev.Data2)<<7 | uint16(ev.Data1)
		return Payload{Domain: Domain14Bit, Value: value}, Matched, nil
	case KindChannelPressure:
		if ev.Kind != EventShort || ev.StatusType() != StatusChannelPressure ||
			!src.Channel.Matches(ev.Channel()) {
			return Payload{}, NoMatch, nil
		}
		return Payload{Domain: Domain7Bit, Value: uint16(ev.Data1)}, Matched, nil
	case KindPolyPressure:
		if ev.Kind != EventShort || ev.StatusType() != StatusPolyPressure ||
			!src.Channel.Matches(ev.Channel()) || !src.Note.Matches(ev.Data1) {
			return Payload{}, NoMatch, nil
		}
		return Payload{Domain: Domain7Bit, Value: uint16(ev.Data2)}, Matched, nil
	case KindSysEx:
		if ev.Kind != EventSysEx || src.Pattern == nil || !src.Pattern.Matches(ev.SysEx) {
			return Payload{}, NoMatch, nil
		}
		// Raw sysex acts as a trigger; there is no numeric payload.
		return Payload{Domain: DomainBool, Bool: true}, Matched, nil
	case KindOSC:
		return matchOSC(src, ev)
	default:
		return Payload{}, NoMatch, nil
	}
}

func matchOSC(src *Source, ev RawEvent) (Payload, MatchResult, error) {
	if ev.Kind != EventOSC || !AddressMatches(src.Address, ev.Addr) {
		return Payload{}, NoMatch, nil
	}
	idx, ok := src.ArgIndex.Get()
	if !ok {
		// No argument of interest: the message itself is the trigger.
		return Payload{Domain: DomainBool, Bool: true}, Matched, nil
	}
	if idx < 0 || idx >= len(ev.Args) {
		return Payload{}, NoMatch, nil
	}
	arg := ev.Args[idx]
	got, ok := OSCTypeOf(arg)
	if !ok || got != src.ArgType {
		return Payload{}, NoMatch, ErrTypeMismatch
	}
	switch v := arg.(type) {
	case float32:
		return Payload{Domain: DomainFloat, Float: float64(v)}, Matched, nil
	case float64:
		return Payload{Domain: DomainFloat, Float: v}, Matched, nil
	case bool:
		return Payload{Domain: DomainBool, Bool: v}, Matched, nil
	default: // nil argument, trigger
		return Payload{Domain: DomainBool, Bool: true}, Matched, nil
	}
}

// AddressMatches reports whether a concrete OSC address satisfies an
// address pattern. A pattern segment of "*" matches exactly one address
// segment; segment counts must agree.
func AddressMatches(pattern, addr string) bool {
	if pattern == addr {
		return true
	}
	pSegs := strings.Split(pattern, "/")
	aSegs := strings.Split(addr, "/")
	if len(pSegs) != len(aSegs) {
		return false
	}
	for i, ps := range pSegs {
		if ps != "*" && ps != aSegs[i] {
			return false
		}
	}
	return true
}
