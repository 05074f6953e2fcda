package learn

import (
	"testing"
	"time"

	"github.com/james-see/midilearn/pkg/source"
)

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func cc(ms int, channel, controller, value byte) source.RawEvent {
	return source.NewShortEvent(at(ms), source.StatusControlChange|channel, controller, value)
}

func TestLearnSingleControlChange(t *testing.T) {
	s := Start(FilterMIDI, 0, at(0))

	if got := s.Feed(cc(10, 3, 7, 99)); got != StateLearned {
		t.Fatalf("state = %v, want learned", got)
	}
	src, ok := s.Result()
	if !ok {
		t.Fatal("Result() should be available after learning")
	}
	want := source.Source{Kind: source.KindControlChange, Channel: source.Byte(3), Controller: source.Byte(7)}
	if !src.Equal(&want) {
		t.Errorf("learned %s, want %s", src.String(), want.String())
	}
	if s.Events() != 1 {
		t.Errorf("Events() = %d, want 1", s.Events())
	}
}

func TestLearnNoteAndPitchBend(t *testing.T) {
	tests := []struct {
		name string
		ev   source.RawEvent
		want source.Source
	}{
		{
			"note on",
			source.NewShortEvent(at(0), source.StatusNoteOn|1, 64, 100),
			source.Source{Kind: source.KindNoteOn, Channel: source.Byte(1), Note: source.Byte(64)},
		},
		{
			"pitch bend",
			source.NewShortEvent(at(0), source.StatusPitchBend|2, 0x00, 0x40),
			source.Source{Kind: source.KindPitchBend, Channel: source.Byte(2)},
		},
		{
			"sysex",
			source.NewSysExEvent(at(0), []byte{0xF0, 0x43, 0x10, 0xF7}),
			source.Source{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Start(FilterMIDI, 0, at(0))
			if got := s.Feed(tt.ev); got != StateLearned {
				t.Fatalf("state = %v, want learned", got)
			}
			if tt.name == "sysex" {
				src, _ := s.Result()
				if src.Kind != source.KindSysEx {
					t.Errorf("learned kind = %v, want sysex", src.Kind)
				}
				return
			}
			src, _ := s.Result()
			if !src.Equal(&tt.want) {
				t.Errorf("learned %s, want %s", src.String(), tt.want.String())
			}
		})
	}
}

func TestLearnOSC(t *testing.T) {
	s := Start(FilterOSC, 0, at(0))

	// A MIDI event is outside the filter and must be ignored.
	if got := s.Feed(cc(0, 0, 7, 1)); got != StateListening {
		t.Fatalf("filtered event changed state to %v", got)
	}
	if s.Events() != 0 {
		t.Errorf("filtered events should not count, got %d", s.Events())
	}

	if got := s.Feed(source.NewOSCEvent(at(10), "/fader/1", float32(0.5))); got != StateLearned {
		t.Fatalf("state = %v, want learned", got)
	}
	src, _ := s.Result()
	want := source.Source{Kind: source.KindOSC, Address: "/fader/1", ArgIndex: source.Index(0), ArgType: source.OSCFloat}
	if !src.Equal(&want) {
		t.Errorf("learned %s, want %s", src.String(), want.String())
	}
}

func TestLearnNRPNComposite(t *testing.T) {
	s := Start(FilterMIDI, 0, at(0))

	if got := s.Feed(cc(0, 0, source.CCNRPNMSB, 0x02)); got != StateStabilizing {
		t.Fatalf("after number MSB: state = %v, want stabilizing", got)
	}
	if got := s.Feed(cc(10, 0, source.CCNRPNLSB, 0x02)); got != StateStabilizing {
		t.Fatalf("after number LSB: state = %v, want stabilizing", got)
	}
	if got := s.Feed(cc(20, 0, source.CCDataMSB, 0x55)); got != StateLearned {
		t.Fatalf("after data entry: state = %v, want learned", got)
	}

	src, _ := s.Result()
	want := source.Source{
		Kind:    source.KindParameterNumber,
		Channel: source.Byte(0),
		Number:  source.U14(0x0102),
	}
	if !src.Equal(&want) {
		t.Errorf("learned %s, want %s", src.String(), want.String())
	}
}

func TestLearnNRPNResetByUnrelatedCC(t *testing.T) {
	s := Start(FilterMIDI, 0, at(0))

	s.Feed(cc(0, 0, source.CCNRPNMSB, 0x02))
	s.Feed(cc(10, 0, source.CCNRPNLSB, 0x02))
	// An unrelated CC invalidates the buffer; it must not be learned as a
	// plain control change either.
	if got := s.Feed(cc(20, 0, 7, 1)); got != StateStabilizing {
		t.Fatalf("unrelated CC: state = %v, want stabilizing", got)
	}
	// The data entry alone cannot complete after the reset.
	if got := s.Feed(cc(30, 0, source.CCDataMSB, 0x55)); got != StateStabilizing {
		t.Fatalf("data entry after reset: state = %v, want stabilizing", got)
	}
	// A full restart of the sequence learns.
	s.Feed(cc(40, 0, source.CCNRPNMSB, 0x02))
	s.Feed(cc(50, 0, source.CCNRPNLSB, 0x02))
	if got := s.Feed(cc(60, 0, source.CCDataMSB, 0x60)); got != StateLearned {
		t.Fatalf("restarted sequence: state = %v, want learned", got)
	}
}

func TestLearnOtherCategoryWinsWhileStabilizing(t *testing.T) {
	s := Start(FilterAll, 0, at(0))

	s.Feed(cc(0, 0, source.CCNRPNMSB, 0x02))
	s.Feed(cc(10, 0, source.CCNRPNLSB, 0x02))
	if got := s.Feed(source.NewOSCEvent(at(20), "/fader/1", float32(0.5))); got != StateLearned {
		t.Fatalf("state = %v, want learned", got)
	}
	src, _ := s.Result()
	if src.Kind != source.KindOSC {
		t.Errorf("learned kind = %v, want osc (first complete category wins)", src.Kind)
	}
}

func TestCancelAlwaysWins(t *testing.T) {
	t.Run("while listening", func(t *testing.T) {
		s := Start(FilterAll, 0, at(0))
		if got := s.Cancel(); got != StateCancelled {
			t.Fatalf("Cancel() = %v, want cancelled", got)
		}
		if got := s.Feed(cc(10, 0, 7, 1)); got != StateCancelled {
			t.Errorf("Feed after cancel changed state to %v", got)
		}
		if _, ok := s.Result(); ok {
			t.Error("cancelled session must not expose a result")
		}
	})

	t.Run("while stabilizing", func(t *testing.T) {
		s := Start(FilterMIDI, 0, at(0))
		s.Feed(cc(0, 0, source.CCNRPNMSB, 0x02))
		if got := s.Cancel(); got != StateCancelled {
			t.Fatalf("Cancel() = %v, want cancelled", got)
		}
		if got := s.Feed(cc(10, 0, source.CCNRPNLSB, 0x02)); got != StateCancelled {
			t.Errorf("Feed after cancel changed state to %v", got)
		}
	})

	t.Run("after learned is a no-op", func(t *testing.T) {
		s := Start(FilterMIDI, 0, at(0))
		s.Feed(cc(0, 0, 7, 1))
		if got := s.Cancel(); got != StateLearned {
			t.Errorf("Cancel() on terminal session = %v, want learned", got)
		}
	})
}

func TestSessionTimeout(t *testing.T) {
	t.Run("via poll", func(t *testing.T) {
		s := Start(FilterMIDI, 500*time.Millisecond, at(0))
		if got := s.PollTimeout(at(400)); got != StateListening {
			t.Fatalf("before deadline: %v", got)
		}
		if got := s.PollTimeout(at(600)); got != StateTimedOut {
			t.Fatalf("after deadline: %v, want timed-out", got)
		}
		if got := s.Feed(cc(700, 0, 7, 1)); got != StateTimedOut {
			t.Errorf("Feed after timeout changed state to %v", got)
		}
	})

	t.Run("via late event", func(t *testing.T) {
		s := Start(FilterMIDI, 500*time.Millisecond, at(0))
		if got := s.Feed(cc(600, 0, 7, 1)); got != StateTimedOut {
			t.Errorf("late event should time out, got %v", got)
		}
	})

	t.Run("no deadline by default", func(t *testing.T) {
		s := Start(FilterMIDI, 0, at(0))
		if got := s.PollTimeout(at(1 << 40)); got != StateListening {
			t.Errorf("session without deadline timed out: %v", got)
		}
	})

	t.Run("while stabilizing", func(t *testing.T) {
		s := Start(FilterMIDI, 500*time.Millisecond, at(0))
		s.Feed(cc(0, 0, source.CCNRPNMSB, 0x02))
		if got := s.PollTimeout(at(600)); got != StateTimedOut {
			t.Errorf("stabilizing session should time out, got %v", got)
		}
	})
}

func TestLearnedHitsBookkeeping(t *testing.T) {
	s := Start(FilterMIDI, 0, at(0))
	s.Feed(cc(0, 2, 7, 1))
	src, _ := s.Result()
	if src.Hits != 1 {
		t.Errorf("Hits = %d, want 1", src.Hits)
	}
	// Bookkeeping must not leak into identity.
	clean := source.Source{Kind: source.KindControlChange, Channel: source.Byte(2), Controller: source.Byte(7)}
	if !src.Equal(&clean) {
		t.Error("learned source with bookkeeping should equal its clean form")
	}
}
