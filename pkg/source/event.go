package source

import (
	"fmt"
	"time"

	"github.com/chabad360/go-osc/osc"
	"gitlab.com/gomidi/midi/v2"
)

// EventKind discriminates the three concrete event shapes a transport can
// deliver.
type EventKind int

const (
	// EventShort is a channel-voice MIDI message (status plus up to two
	// data bytes).
	EventShort EventKind = iota
	// EventSysEx is a complete system-exclusive byte sequence including
	// the F0/F7 frame.
	EventSysEx
	// EventOSC is an OSC message: an address plus typed arguments.
	EventOSC
)

// MIDI status nibbles for short messages.
const (
	StatusNoteOff         = 0x80
	StatusNoteOn          = 0x90
	StatusPolyPressure    = 0xA0
	StatusControlChange   = 0xB0
	StatusProgramChange   = 0xC0
	StatusChannelPressure = 0xD0
	StatusPitchBend       = 0xE0
)

// SysEx frame bytes.
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7
)

// RawEvent is an immutable, timestamped concrete message as received from a
// transport. The transport layer (MIDI device I/O, OSC sockets) lives
// outside this package; it constructs RawEvents and hands them to the
// matcher or a learn session.
type RawEvent struct {
	Time time.Time
	Kind EventKind

	// Short message fields. Status carries the channel in its low nibble.
	Status byte
	Data1  byte
	Data2  byte

	// SysEx bytes, including the F0/F7 frame.
	SysEx []byte

	// OSC fields.
	Addr string
	Args []interface{}
}

// NewShortEvent builds a channel-voice MIDI event from raw bytes.
func NewShortEvent(ts time.Time, status, data1, data2 byte) RawEvent {
	return RawEvent{Time: ts, Kind: EventShort, Status: status, Data1: data1, Data2: data2}
}

// NewSysExEvent builds a sysex event. The byte slice is copied so the event
// stays immutable even if the transport reuses its buffer.
func NewSysExEvent(ts time.Time, data []byte) RawEvent {
	cp := make([]byte, len(data))
	copy(cp, data)
	return RawEvent{Time: ts, Kind: EventSysEx, SysEx: cp}
}

// NewOSCEvent builds an OSC event from an address and its arguments.
func NewOSCEvent(ts time.Time, addr string, args ...interface{}) RawEvent {
	return RawEvent{Time: ts, Kind: EventOSC, Addr: addr, Args: args}
}

// FromMessage converts a gomidi message into a RawEvent. Returns false for
// message types this engine does not recognize (clock, active sensing, ...).
func FromMessage(ts time.Time, msg midi.Message) (RawEvent, bool) {
	b := msg.Bytes()
	if len(b) == 0 {
		return RawEvent{}, false
	}
	if b[0] == SysExStart {
		return NewSysExEvent(ts, b), true
	}
	switch b[0] & 0xF0 {
	case StatusProgramChange, StatusChannelPressure:
		if len(b) < 2 {
			return RawEvent{}, false
		}
		return NewShortEvent(ts, b[0], b[1], 0), true
	case StatusNoteOff, StatusNoteOn, StatusPolyPressure, StatusControlChange, StatusPitchBend:
		if len(b) < 3 {
			return RawEvent{}, false
		}
		return NewShortEvent(ts, b[0], b[1], b[2]), true
	}
	return RawEvent{}, false
}

// FromOSC converts a go-osc message into a RawEvent.
func FromOSC(ts time.Time, msg *osc.Message) RawEvent {
	return NewOSCEvent(ts, msg.Address, msg.Arguments...)
}

// Channel returns the MIDI channel (0-15) of a short message.
func (e RawEvent) Channel() byte {
	return e.Status & 0x0F
}

// StatusType returns the status nibble (0x80, 0x90, ...) of a short message.
func (e RawEvent) StatusType() byte {
	return e.Status & 0xF0
}

// IsNoteOn reports whether the event is a note-on with nonzero velocity.
// Note-on with velocity zero is a note-off by MIDI convention.
func (e RawEvent) IsNoteOn() bool {
	return e.Kind == EventShort && e.StatusType() == StatusNoteOn && e.Data2 > 0
}

// IsNoteOff reports whether the event is a note-off, including note-on with
// velocity zero.
func (e RawEvent) IsNoteOff() bool {
	if e.Kind != EventShort {
		return false
	}
	t := e.StatusType()
	return t == StatusNoteOff || (t == StatusNoteOn && e.Data2 == 0)
}

// String implements fmt.Stringer for logs and the TUI.
func (e RawEvent) String() string {
	switch e.Kind {
	case EventSysEx:
		return fmt.Sprintf("sysex % X", e.SysEx)
	case EventOSC:
		return fmt.Sprintf("osc %s %v", e.Addr, e.Args)
	default:
		return fmt.Sprintf("midi %02X %02X %02X", e.Status, e.Data1, e.Data2)
	}
}
