package control

import (
	"errors"
	"math"
	"testing"

	"github.com/james-see/midilearn/pkg/pattern"
	"github.com/james-see/midilearn/pkg/source"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeAbsoluteBoundaries(t *testing.T) {
	cc := source.Source{Kind: source.KindControlChange, Channel: source.Byte(0), Controller: source.Byte(7)}

	tests := []struct {
		name    string
		payload source.Payload
		want    float64
	}{
		{"7-bit zero", source.Payload{Domain: source.Domain7Bit, Value: 0}, 0},
		{"7-bit max", source.Payload{Domain: source.Domain7Bit, Value: 127}, 1},
		{"7-bit mid", source.Payload{Domain: source.Domain7Bit, Value: 64}, 64.0 / 127.0},
		{"7-bit out of domain clamps", source.Payload{Domain: source.Domain7Bit, Value: 200}, 1},
		{"14-bit zero", source.Payload{Domain: source.Domain14Bit, Value: 0}, 0},
		{"14-bit max", source.Payload{Domain: source.Domain14Bit, Value: 16383}, 1},
		{"14-bit out of domain clamps", source.Payload{Domain: source.Domain14Bit, Value: 20000}, 1},
		{"bool on", source.Payload{Domain: source.DomainBool, Bool: true}, 1},
		{"bool off", source.Payload{Domain: source.DomainBool, Bool: false}, 0},
		{"float passthrough", source.Payload{Domain: source.DomainFloat, Float: 0.25}, 0.25},
		{"float above one clamps", source.Payload{Domain: source.DomainFloat, Float: 1.5}, 1},
		{"float below zero clamps", source.Payload{Domain: source.DomainFloat, Float: -0.5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Normalize(&cc, tt.payload, ModeAbsolute)
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if v.IsRelative() {
				t.Fatal("absolute mode produced a relative value")
			}
			if !almostEqual(v.Unit(), tt.want) {
				t.Errorf("Unit() = %v, want %v", v.Unit(), tt.want)
			}
		})
	}
}

func TestNormalizeRelativeEncodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding source.RelativeEncoding
		value    uint16
		want     int
	}{
		{"centered64 +1", source.EncodingCentered64, 0x41, 1},
		{"centered64 -1", source.EncodingCentered64, 0x3F, -1},
		{"centered64 rest", source.EncodingCentered64, 0x40, 0},
		{"centered64 +3", source.EncodingCentered64, 0x43, 3},
		{"sign-magnitude +1", source.EncodingSignMagnitude, 0x01, 1},
		{"sign-magnitude -1", source.EncodingSignMagnitude, 0x41, -1},
		{"sign-magnitude -5", source.EncodingSignMagnitude, 0x45, -5},
		{"sign-magnitude rest", source.EncodingSignMagnitude, 0x00, 0},
		{"inc-dec up", source.EncodingIncDec, 0x41, 1},
		{"inc-dec down", source.EncodingIncDec, 0x3F, -1},
		{"inc-dec rest", source.EncodingIncDec, 0x40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := source.Source{
				Kind:       source.KindControlChange,
				Channel:    source.Byte(0),
				Controller: source.Byte(16),
				Encoding:   tt.encoding,
			}
			p := source.Payload{Domain: source.Domain7Bit, Value: tt.value}
			v, err := Normalize(&src, p, ModeRelative)
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if !v.IsRelative() {
				t.Fatal("relative mode produced an absolute value")
			}
			if v.Steps() != tt.want {
				t.Errorf("Steps() = %d, want %d", v.Steps(), tt.want)
			}
		})
	}
}

func TestNormalizeParameterNumberIncDec(t *testing.T) {
	src := source.Source{
		Kind:     source.KindParameterNumber,
		Channel:  source.Byte(0),
		Number:   source.U14(100),
		Encoding: source.EncodingIncDec,
	}

	tests := []struct {
		name    string
		payload source.Payload
		want    int
	}{
		{"increment default amount", source.Payload{Domain: source.Domain7Bit, Value: 0, Dir: 1}, 1},
		{"decrement default amount", source.Payload{Domain: source.Domain7Bit, Value: 0, Dir: -1}, -1},
		{"increment with amount", source.Payload{Domain: source.Domain7Bit, Value: 4, Dir: 1}, 4},
		{"decrement with amount", source.Payload{Domain: source.Domain7Bit, Value: 2, Dir: -1}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Normalize(&src, tt.payload, ModeRelative)
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if v.Steps() != tt.want {
				t.Errorf("Steps() = %d, want %d", v.Steps(), tt.want)
			}
		})
	}
}

func TestNormalizeRelativeOSC(t *testing.T) {
	src := source.Source{Kind: source.KindOSC, Address: "/enc/1", ArgIndex: source.Index(0), ArgType: source.OSCFloat}

	up, err := Normalize(&src, source.Payload{Domain: source.DomainFloat, Float: 1}, ModeRelative)
	if err != nil || up.Steps() != 1 {
		t.Errorf("osc up: steps=%d err=%v", up.Steps(), err)
	}
	down, err := Normalize(&src, source.Payload{Domain: source.DomainFloat, Float: 0}, ModeRelative)
	if err != nil || down.Steps() != -1 {
		t.Errorf("osc down: steps=%d err=%v", down.Steps(), err)
	}
}

func TestNormalizeUnsupportedModes(t *testing.T) {
	tests := []struct {
		name string
		src  source.Source
	}{
		{"sysex has no delta convention", source.Source{Kind: source.KindSysEx, Pattern: pattern.MustParse("F0 ...")}},
		{"note has no delta convention", source.Source{Kind: source.KindNoteOn, Channel: source.Byte(0), Note: source.Byte(60)}},
		{"program change has no delta convention", source.Source{Kind: source.KindProgramChange, Channel: source.Byte(0)}},
		{"cc without configured encoding", source.Source{Kind: source.KindControlChange, Channel: source.Byte(0), Controller: source.Byte(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(&tt.src, source.Payload{Domain: source.Domain7Bit, Value: 0x41}, ModeRelative)
			if !errors.Is(err, ErrUnsupportedMode) {
				t.Errorf("err = %v, want ErrUnsupportedMode", err)
			}
		})
	}
}

func TestNormalize14BitRelativeUsesLowSevenBits(t *testing.T) {
	src := source.Source{
		Kind:       source.KindControlChange,
		Channel:    source.Byte(0),
		Controller: source.Byte(7),
		Is14Bit:    true,
		Encoding:   source.EncodingCentered64,
	}
	p := source.Payload{Domain: source.Domain14Bit, Value: uint16(0x10)<<7 | 0x42}
	v, err := Normalize(&src, p, ModeRelative)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if v.Steps() != 2 {
		t.Errorf("Steps() = %d, want 2 (low seven bits 0x42)", v.Steps())
	}
}
