package source

import "time"

// Controller numbers that take part in (N)RPN sequences.
const (
	CCDataMSB       = 6   // data entry MSB
	CCDataLSB       = 38  // data entry LSB
	CCDataIncrement = 96  // data increment
	CCDataDecrement = 97  // data decrement
	CCNRPNLSB       = 98  // NRPN select LSB
	CCNRPNMSB       = 99  // NRPN select MSB
	CCRPNLSB        = 100 // RPN select LSB
	CCRPNMSB        = 101 // RPN select MSB
)

// IsParameterNumberCC reports whether a controller number belongs to the
// (N)RPN message convention.
func IsParameterNumberCC(cc byte) bool {
	return cc == CCDataMSB || cc == CCDataLSB || (cc >= CCDataIncrement && cc <= CCRPNMSB)
}

// PNMessage is one assembled logical parameter-number message. Dir is zero
// for absolute data entry, +1 for a data-increment message and -1 for a
// data-decrement message; for the latter two, Value carries the step amount
// (hardware often sends zero, meaning one step).
type PNMessage struct {
	Channel    byte
	Number     uint16
	Value      uint16
	Is14Bit    bool
	Registered bool
	Dir        int
}

// PNResult classifies what an assembler did with an event.
type PNResult int

const (
	// PNIgnored means the event was not part of a parameter-number
	// sequence; any in-progress sequence on its channel was invalidated.
	PNIgnored PNResult = iota
	// PNPending means the event was consumed but the sequence is not yet
	// complete. Callers must not treat this as a failed match.
	PNPending
	// PNComplete means a full logical message was assembled.
	PNComplete
)

type pnStage int

const (
	pnIdle pnStage = iota
	pnNumberMSB
	pnNumberReady
	pnValueMSB
)

type pnChannel struct {
	stage      pnStage
	registered bool
	numberMSB  byte
	numberLSB  byte
	valueMSB   byte
	last       time.Time
}

func (c *pnChannel) reset() {
	*c = pnChannel{}
}

func (c *pnChannel) number() uint16 {
	return uint16(c.numberMSB)<<7 | uint16(c.numberLSB)
}

// PNAssembler accumulates the multi-message (N)RPN convention into logical
// messages, keyed by channel. One logical value spans two CC messages
// selecting the parameter number plus one or two carrying the value (or a
// single increment/decrement message). Any CC outside the expected next
// step, and any inter-message gap beyond the timeout, invalidates the
// channel's buffer; that is normal operation, not an error, since dropped
// and reordered controller messages are common on real hardware.
//
// Assemblers are not internally synchronized; feed each instance from a
// single goroutine.
type PNAssembler struct {
	timeout time.Duration
	chans   [16]pnChannel
}

// DefaultCompositeTimeout is the default inter-message timeout for
// multi-message sequences.
const DefaultCompositeTimeout = 300 * time.Millisecond

// NewPNAssembler creates an assembler with the given inter-message timeout.
// A zero or negative timeout disables expiry.
func NewPNAssembler(timeout time.Duration) *PNAssembler {
	return &PNAssembler{timeout: timeout}
}

// Feed processes one event. Only short control-change events participate;
// everything else returns PNIgnored without touching any buffer. want14
// selects the value width: when false, a data-entry MSB completes the
// sequence as a 7-bit value immediately; when true, the assembler waits for
// the data-entry LSB and emits a 14-bit value. Expiry is judged against
// event timestamps, never the wall clock.
func (a *PNAssembler) Feed(ev RawEvent, want14 bool) (PNMessage, PNResult) {
	if ev.Kind != EventShort || ev.StatusType() != StatusControlChange {
		return PNMessage{}, PNIgnored
	}
	ch := ev.Channel()
	cc := ev.Data1
	val := ev.Data2
	st := &a.chans[ch]

	if st.stage != pnIdle && a.expired(st.last, ev.Time) {
		st.reset()
	}
	if !IsParameterNumberCC(cc) {
		// A foreign CC interleaved with the sequence invalidates it.
		st.reset()
		return PNMessage{}, PNIgnored
	}
	st.last = ev.Time

	switch cc {
	case CCNRPNMSB, CCRPNMSB:
		registered := cc == CCRPNMSB
		st.reset()
		st.stage = pnNumberMSB
		st.registered = registered
		st.numberMSB = val
		st.last = ev.Time
	case CCNRPNLSB, CCRPNLSB:
		registered := cc == CCRPNLSB
		if st.stage == pnNumberMSB && st.registered == registered {
			st.numberLSB = val
			st.stage = pnNumberReady
		} else {
			// Select LSB without its MSB cannot start a sequence.
			st.reset()
		}
	case CCDataMSB:
		if st.stage == pnNumberReady || st.stage == pnValueMSB {
			st.valueMSB = val
			if want14 {
				st.stage = pnValueMSB
			} else {
				st.stage = pnNumberReady
				return a.emit(ch, st, uint16(val), false, 0), PNComplete
			}
		} else {
			st.reset()
		}
	case CCDataLSB:
		if st.stage == pnValueMSB {
			value := uint16(st.valueMSB)<<7 | uint16(val)
			st.stage = pnNumberReady
			return a.emit(ch, st, value, true, 0), PNComplete
		}
		st.reset()
	case CCDataIncrement, CCDataDecrement:
		if st.stage == pnNumberReady || st.stage == pnValueMSB {
			dir := 1
			if cc == CCDataDecrement {
				dir = -1
			}
			st.stage = pnNumberReady
			return a.emit(ch, st, uint16(val), false, dir), PNComplete
		}
		st.reset()
	}
	return PNMessage{}, PNPending
}

// Poll expires stale in-progress sequences. Call it when time passes
// without events; now is the caller's clock.
func (a *PNAssembler) Poll(now time.Time) {
	for i := range a.chans {
		st := &a.chans[i]
		if st.stage != pnIdle && a.expired(st.last, now) {
			st.reset()
		}
	}
}

// InProgress reports whether any channel has a partially assembled
// sequence.
func (a *PNAssembler) InProgress() bool {
	for i := range a.chans {
		if a.chans[i].stage != pnIdle {
			return true
		}
	}
	return false
}

func (a *PNAssembler) expired(last, now time.Time) bool {
	return a.timeout > 0 && now.Sub(last) > a.timeout
}

func (a *PNAssembler) emit(ch byte, st *pnChannel, value uint16, is14 bool, dir int) PNMessage {
	return PNMessage{
		Channel:    ch,
		Number:     st.number(),
		Value:      value,
		Is14Bit:    is14,
		Registered: st.registered,
		Dir:        dir,
	}
}
