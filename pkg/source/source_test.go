package source

import (
	"testing"
	"time"

	"github.com/james-see/midilearn/pkg/pattern"
)

func TestKeyIgnoresTransientFields(t *testing.T) {
	a := Source{Kind: KindControlChange, Channel: Byte(3), Controller: Byte(7)}
	b := Source{Kind: KindControlChange, Channel: Byte(3), Controller: Byte(7)}
	b.Hits = 42
	b.Encoding = EncodingCentered64

	if !a.Equal(&b) {
		t.Error("sources differing only in transient fields should be equal")
	}
	if a.Key() != b.Key() {
		t.Error("keys should be identical despite transient field differences")
	}

	m := map[Key]string{a.Key(): "slot"}
	if m[b.Key()] != "slot" {
		t.Error("key projection should hash identically for map lookups")
	}
}

func TestKeySeparatesVariants(t *testing.T) {
	tests := []struct {
		name string
		a, b Source
	}{
		{
			"different kind",
			Source{Kind: KindNoteOn, Channel: Byte(0), Note: Byte(60)},
			Source{Kind: KindNoteOff, Channel: Byte(0), Note: Byte(60)},
		},
		{
			"wildcard vs concrete channel",
			Source{Kind: KindControlChange, Channel: AnyByte(), Controller: Byte(7)},
			Source{Kind: KindControlChange, Channel: Byte(0), Controller: Byte(7)},
		},
		{
			"7 vs 14 bit",
			Source{Kind: KindControlChange, Channel: Byte(0), Controller: Byte(7)},
			Source{Kind: KindControlChange, Channel: Byte(0), Controller: Byte(7), Is14Bit: true},
		},
		{
			"nrpn vs rpn",
			Source{Kind: KindParameterNumber, Channel: Byte(0), Number: U14(100)},
			Source{Kind: KindParameterNumber, Channel: Byte(0), Number: U14(100), Registered: true},
		},
		{
			"different sysex pattern",
			Source{Kind: KindSysEx, Pattern: pattern.MustParse("F0 43 ...")},
			Source{Kind: KindSysEx, Pattern: pattern.MustParse("F0 42 ...")},
		},
		{
			"different osc address",
			Source{Kind: KindOSC, Address: "/fader/1", ArgIndex: Index(0)},
			Source{Kind: KindOSC, Address: "/fader/2", ArgIndex: Index(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Equal(&tt.b) {
				t.Errorf("%s and %s should not be equal", tt.a.String(), tt.b.String())
			}
		})
	}
}

func TestSysExPatternKeyRoundTrip(t *testing.T) {
	a := Source{Kind: KindSysEx, Pattern: pattern.MustParse("f0 43 xx f7")}
	b := Source{Kind: KindSysEx, Pattern: pattern.MustParse("F0 43 XX F7")}
	if !a.Equal(&b) {
		t.Error("patterns with equal match behavior should produce equal keys")
	}
}

func TestObserveShortMessages(t *testing.T) {
	ts := time.Unix(0, 0)
	tests := []struct {
		name string
		ev   RawEvent
		want Source
	}{
		{
			"note on",
			NewShortEvent(ts, StatusNoteOn|2, 60, 100),
			Source{Kind: KindNoteOn, Channel: Byte(2), Note: Byte(60)},
		},
		{
			"note on velocity zero is note off",
			NewShortEvent(ts, StatusNoteOn|2, 60, 0),
			Source{Kind: KindNoteOff, Channel: Byte(2), Note: Byte(60)},
		},
		{
			"control change",
			NewShortEvent(ts, StatusControlChange|5, 7, 64),
			Source{Kind: KindControlChange, Channel: Byte(5), Controller: Byte(7)},
		},
		{
			"program change",
			NewShortEvent(ts, StatusProgramChange|1, 12, 0),
			Source{Kind: KindProgramChange, Channel: Byte(1), Program: Byte(12)},
		},
		{
			"pitch bend",
			NewShortEvent(ts, StatusPitchBend|0, 0x00, 0x40),
			Source{Kind: KindPitchBend, Channel: Byte(0)},
		},
		{
			"channel pressure",
			NewShortEvent(ts, StatusChannelPressure|3, 99, 0),
			Source{Kind: KindChannelPressure, Channel: Byte(3)},
		},
		{
			"poly pressure",
			NewShortEvent(ts, StatusPolyPressure|4, 61, 80),
			Source{Kind: KindPolyPressure, Channel: Byte(4), Note: Byte(61)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Observe(tt.ev)
			if !ok {
				t.Fatalf("Observe(%s) failed", tt.ev)
			}
			if !got.Equal(&tt.want) {
				t.Errorf("Observe(%s) = %s, want %s", tt.ev, got.String(), tt.want.String())
			}
		})
	}
}

func TestObserveRejectsParameterNumberCCs(t *testing.T) {
	ts := time.Unix(0, 0)
	for _, cc := range []byte{CCDataMSB, CCDataLSB, CCDataIncrement, CCDataDecrement, CCNRPNLSB, CCNRPNMSB, CCRPNLSB, CCRPNMSB} {
		ev := NewShortEvent(ts, StatusControlChange, cc, 1)
		if _, ok := Observe(ev); ok {
			t.Errorf("Observe should not classify CC %d on its own", cc)
		}
	}
}

func TestObserveSysEx(t *testing.T) {
	ev := NewSysExEvent(time.Unix(0, 0), []byte{0xF0, 0x43, 0x10, 0xF7})
	src, ok := Observe(ev)
	if !ok {
		t.Fatal("Observe(sysex) failed")
	}
	if src.Kind != KindSysEx {
		t.Fatalf("kind = %v, want sysex", src.Kind)
	}
	if !src.Pattern.Matches(ev.SysEx) {
		t.Error("observed pattern should match the originating bytes")
	}
	if src.Pattern.Matches([]byte{0xF0, 0x43, 0x11, 0xF7}) {
		t.Error("observed pattern should be fully literal")
	}
}

func TestObserveOSC(t *testing.T) {
	ev := NewOSCEvent(time.Unix(0, 0), "/fader/1", float32(0.5))
	src, ok := Observe(ev)
	if !ok {
		t.Fatal("Observe(osc) failed")
	}
	want := Source{Kind: KindOSC, Address: "/fader/1", ArgIndex: Index(0), ArgType: OSCFloat}
	if !src.Equal(&want) {
		t.Errorf("Observe = %s, want %s", src.String(), want.String())
	}
}

func TestObserveOSCWithoutUsableArg(t *testing.T) {
	ev := NewOSCEvent(time.Unix(0, 0), "/button/go", "label")
	src, ok := Observe(ev)
	if !ok {
		t.Fatal("Observe(osc) failed")
	}
	if _, present := src.ArgIndex.Get(); present {
		t.Error("string-only arguments should leave the source as a trigger")
	}
}
