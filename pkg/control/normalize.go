package control

import (
	"errors"

	"github.com/james-see/midilearn/pkg/source"
)

// ErrUnsupportedMode indicates a source/mode combination with no defined
// interpretation, e.g. relative decoding of a raw sysex trigger. It is a
// configuration error: reject it at mapping-setup time rather than waiting
// for events to fail at runtime.
var ErrUnsupportedMode = errors.New("interpretation mode unsupported for source")

// Mode selects how a payload is interpreted.
type Mode int

const (
	// ModeAbsolute maps the payload onto the unit interval.
	ModeAbsolute Mode = iota
	// ModeRelative decodes the payload as a signed increment using the
	// source's configured RelativeEncoding.
	ModeRelative
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeRelative {
		return "relative"
	}
	return "absolute"
}

const (
	max7Bit  = 127
	max14Bit = 16383
)

// Normalize converts a matched payload into a canonical control value.
// Out-of-domain integers are clamped to the domain maximum, never
// rejected; the only error is ErrUnsupportedMode for a relative request on
// a source category without a signed-delta convention (or with no
// encoding configured).
func Normalize(src *source.Source, p source.Payload, mode Mode) (Value, error) {
	if mode == ModeRelative {
		return normalizeRelative(src, p)
	}
	return normalizeAbsolute(p), nil
}

func normalizeAbsolute(p source.Payload) Value {
	switch p.Domain {
	case source.Domain7Bit:
		return Absolute(float64(clamp(p.Value, max7Bit)) / max7Bit)
	case source.Domain14Bit:
		return Absolute(float64(clamp(p.Value, max14Bit)) / max14Bit)
	case source.DomainFloat:
		return Absolute(p.Float)
	case source.DomainBool:
		if p.Bool {
			return Absolute(1)
		}
		return Absolute(0)
	default:
		return Absolute(0)
	}
}

func normalizeRelative(src *source.Source, p source.Payload) (Value, error) {
	switch src.Kind {
	case source.KindOSC:
		// OSC relative: any "on" payload is one step up, anything else
		// one step down.
		if p.Float > 0 || p.Bool {
			return Relative(1), nil
		}
		return Relative(-1), nil
	case source.KindControlChange, source.KindParameterNumber:
		// Fall through to byte-level decoding below.
	default:
		return Value{}, ErrUnsupportedMode
	}

	// Parameter-number increment/decrement messages carry their own
	// direction; the data byte is the step amount (often zero, meaning
	// one step).
	if p.Dir != 0 {
		amount := int(clamp(p.Value, max7Bit))
		if amount == 0 {
			amount = 1
		}
		return Relative(p.Dir * amount), nil
	}

	// Relative encoders speak 7-bit regardless of the declared width;
	// a 14-bit payload contributes its low seven bits.
	v := byte(p.Value & 0x7F)
	switch src.Encoding {
	case source.EncodingCentered64:
		return Relative(int(v) - 64), nil
	case source.EncodingSignMagnitude:
		mag := int(v & 0x3F)
		if v&0x40 != 0 {
			mag = -mag
		}
		return Relative(mag), nil
	case source.EncodingIncDec:
		switch {
		case v > 0x40:
			return Relative(1), nil
		case v < 0x40:
			return Relative(-1), nil
		default:
			return Relative(0), nil
		}
	default:
		// The byte stream is ambiguous between encodings, so decoding
		// without explicit configuration would be a guess.
		return Value{}, ErrUnsupportedMode
	}
}

func clamp(v, max uint16) uint16 {
	if v > max {
		return max
	}
	return v
}
