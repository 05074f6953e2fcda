package source

import (
	"fmt"

	"github.com/james-see/midilearn/pkg/pattern"
)

// Kind discriminates the source variants.
type Kind int

const (
	KindNoteOn Kind = iota
	KindNoteOff
	KindControlChange
	KindProgramChange
	KindPitchBend
	KindChannelPressure
	KindPolyPressure
	KindSysEx
	KindParameterNumber
	KindOSC
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindControlChange:
		return "control-change"
	case KindProgramChange:
		return "program-change"
	case KindPitchBend:
		return "pitch-bend"
	case KindChannelPressure:
		return "channel-pressure"
	case KindPolyPressure:
		return "poly-pressure"
	case KindSysEx:
		return "sysex"
	case KindParameterNumber:
		return "parameter-number"
	case KindOSC:
		return "osc"
	default:
		return "unknown"
	}
}

// OSCType is the argument type an OSC source expects at its argument index.
type OSCType int

const (
	// OSCFloat is a 32-bit float argument.
	OSCFloat OSCType = iota
	// OSCDouble is a 64-bit float argument.
	OSCDouble
	// OSCBool is a boolean argument.
	OSCBool
	// OSCNil is a nil argument; the message acts as a trigger.
	OSCNil
)

// String implements fmt.Stringer.
func (t OSCType) String() string {
	switch t {
	case OSCFloat:
		return "float"
	case OSCDouble:
		return "double"
	case OSCBool:
		return "bool"
	case OSCNil:
		return "nil"
	default:
		return "unknown"
	}
}

// OSCTypeOf classifies a concrete OSC argument value. Returns false for
// argument types this engine cannot turn into a control value (string,
// blob, ...).
func OSCTypeOf(arg interface{}) (OSCType, bool) {
	switch arg.(type) {
	case float32:
		return OSCFloat, true
	case float64:
		return OSCDouble, true
	case bool:
		return OSCBool, true
	case nil:
		return OSCNil, true
	default:
		return 0, false
	}
}

// RelativeEncoding selects the byte-level convention used to decode a
// relative (increment/decrement) payload. The raw byte stream is ambiguous
// between the conventions, so the encoding is always explicit source
// configuration and never inferred from payloads.
type RelativeEncoding int

const (
	// EncodingNone marks a source not configured for relative decoding.
	EncodingNone RelativeEncoding = iota
	// EncodingCentered64 decodes two's-complement style around 64:
	// 0x41 is +1, 0x3F is -1, 0x40 is no step.
	EncodingCentered64
	// EncodingSignMagnitude treats bit 0x40 as the sign: the step is the
	// low six bits, negative when the bit is set.
	EncodingSignMagnitude
	// EncodingIncDec uses the two fixed data-entry controllers (CC 96
	// increment, CC 97 decrement) for parameter numbers, or the fixed
	// values above/below 0x40 for plain controllers.
	EncodingIncDec
)

// String implements fmt.Stringer.
func (e RelativeEncoding) String() string {
	switch e {
	case EncodingCentered64:
		return "centered-64"
	case EncodingSignMagnitude:
		return "sign-magnitude"
	case EncodingIncDec:
		return "inc-dec"
	default:
		return "none"
	}
}

// Source describes a class of events to recognize. Fields outside the
// variant selected by Kind are ignored. Sources are value objects: copy
// freely, compare via Equal or Key.
//
// Hits is transient learn-session bookkeeping and, like the relative
// Encoding configuration, excluded from Key, Equal and hashing: two sources
// describing the same event class stay interchangeable as mapping-table
// keys regardless of runtime bookkeeping.
type Source struct {
	Kind    Kind
	Channel OptByte // all MIDI variants

	Note       OptByte // note-on, note-off, poly-pressure
	Controller OptByte // control-change (MSB controller when Is14Bit)
	Program    OptByte // program-change
	Is14Bit    bool    // control-change pair, parameter-number width
	Number     OptU14  // parameter-number
	Registered bool    // parameter-number: RPN instead of NRPN

	Pattern *pattern.Pattern // sysex

	Address  string   // osc address pattern, "*" segments allowed
	ArgIndex OptIndex // osc argument to read; absent acts as trigger
	ArgType  OSCType  // osc expected argument type

	Encoding RelativeEncoding // relative decode convention, see pkg/control

	Hits int // transient: events matched during learning
}

// Key is the comparable projection of a Source: only the fields that define
// which events the source recognizes. Usable directly as a Go map key,
// which gives hashing and equality in one stroke.
type Key struct {
	Kind       Kind
	Channel    OptByte
	Note       OptByte
	Controller OptByte
	Program    OptByte
	Is14Bit    bool
	Number     OptU14
	Registered bool
	Pattern    string
	Address    string
	ArgIndex   OptIndex
	ArgType    OSCType
}

// Key returns the semantic key projection of the source. Sysex patterns
// enter via their canonical textual form, which round-trips losslessly.
func (s *Source) Key() Key {
	k := Key{
		Kind:       s.Kind,
		Channel:    s.Channel,
		Note:       s.Note,
		Controller: s.Controller,
		Program:    s.Program,
		Is14Bit:    s.Is14Bit,
		Number:     s.Number,
		Registered: s.Registered,
		Address:    s.Address,
		ArgIndex:   s.ArgIndex,
		ArgType:    s.ArgType,
	}
	if s.Pattern != nil {
		k.Pattern = s.Pattern.String()
	}
	return k
}

// Equal reports whether two sources describe the same event class.
func (s *Source) Equal(other *Source) bool {
	return s.Key() == other.Key()
}

// String implements fmt.Stringer.
func (s *Source) String() string {
	switch s.Kind {
	case KindNoteOn, KindNoteOff, KindPolyPressure:
		return fmt.Sprintf("%s ch=%s note=%s", s.Kind, s.Channel, s.Note)
	case KindControlChange:
		if s.Is14Bit {
			return fmt.Sprintf("%s ch=%s cc=%s (14-bit)", s.Kind, s.Channel, s.Controller)
		}
		return fmt.Sprintf("%s ch=%s cc=%s", s.Kind, s.Channel, s.Controller)
	case KindProgramChange:
		return fmt.Sprintf("%s ch=%s program=%s", s.Kind, s.Channel, s.Program)
	case KindPitchBend, KindChannelPressure:
		return fmt.Sprintf("%s ch=%s", s.Kind, s.Channel)
	case KindSysEx:
		if s.Pattern == nil {
			return "sysex <nil pattern>"
		}
		return fmt.Sprintf("sysex %q", s.Pattern.String())
	case KindParameterNumber:
		name := "nrpn"
		if s.Registered {
			name = "rpn"
		}
		width := "7-bit"
		if s.Is14Bit {
			width = "14-bit"
		}
		return fmt.Sprintf("%s ch=%s number=%s (%s)", name, s.Channel, s.Number, width)
	case KindOSC:
		return fmt.Sprintf("osc %s arg=%s type=%s", s.Address, s.ArgIndex, s.ArgType)
	default:
		return "unknown source"
	}
}
