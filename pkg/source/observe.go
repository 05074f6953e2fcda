package source

import "github.com/james-see/midilearn/pkg/pattern"

// Observe classifies a concrete single-message event into the source that
// would match exactly this event, with every field concrete. Returns false
// for events that cannot be classified on their own (control changes that
// belong to the parameter-number convention are multi-message and go
// through a PNAssembler instead).
func Observe(ev RawEvent) (Source, bool) {
	switch ev.Kind {
	case EventSysEx:
		return Source{
			Kind:    KindSysEx,
			Pattern: fixedPattern(ev.SysEx),
		}, true
	case EventOSC:
		return observeOSC(ev), true
	case EventShort:
		return observeShort(ev)
	default:
		return Source{}, false
	}
}

// FromPNMessage builds the concrete parameter-number source matching an
// assembled logical message.
func FromPNMessage(msg PNMessage) Source {
	return Source{
		Kind:       KindParameterNumber,
		Channel:    Byte(msg.Channel),
		Number:     U14(msg.Number),
		Is14Bit:    msg.Is14Bit,
		Registered: msg.Registered,
	}
}

func observeShort(ev RawEvent) (Source, bool) {
	ch := Byte(ev.Channel())
	switch {
	case ev.IsNoteOn():
		return Source{Kind: KindNoteOn, Channel: ch, Note: Byte(ev.Data1)}, true
	case ev.IsNoteOff():
		return Source{Kind: KindNoteOff, Channel: ch, Note: Byte(ev.Data1)}, true
	}
	switch ev.StatusType() {
	case StatusControlChange:
		if IsParameterNumberCC(ev.Data1) {
			return Source{}, false
		}
		return Source{Kind: KindControlChange, Channel: ch, Controller: Byte(ev.Data1)}, true
	case StatusProgramChange:
		return Source{Kind: KindProgramChange, Channel: ch, Program: Byte(ev.Data1)}, true
	case StatusPitchBend:
		return Source{Kind: KindPitchBend, Channel: ch}, true
	case StatusChannelPressure:
		return Source{Kind: KindChannelPressure, Channel: ch}, true
	case StatusPolyPressure:
		return Source{Kind: KindPolyPressure, Channel: ch, Note: Byte(ev.Data1)}, true
	default:
		return Source{}, false
	}
}

func observeOSC(ev RawEvent) Source {
	src := Source{Kind: KindOSC, Address: ev.Addr}
	for i, arg := range ev.Args {
		if t, ok := OSCTypeOf(arg); ok {
			src.ArgIndex = Index(i)
			src.ArgType = t
			break
		}
	}
	return src
}

// fixedPattern compiles a pattern of literal segments matching exactly the
// given bytes.
func fixedPattern(bytes []byte) *pattern.Pattern {
	p, err := pattern.Parse(hexSpec(bytes))
	if err != nil {
		// Hex rendering of arbitrary bytes is always a valid spec.
		panic(err)
	}
	return p
}

func hexSpec(bytes []byte) string {
	const hexDigits = "0123456789ABCDEF"
	buf := make([]byte, 0, len(bytes)*3)
	for i, b := range bytes {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return string(buf)
}
