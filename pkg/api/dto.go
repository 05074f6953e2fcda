package api

import (
	"fmt"

	"github.com/james-see/midilearn/pkg/pattern"
	"github.com/james-see/midilearn/pkg/source"
)

// SourceDTO is the JSON form of a source description. Absent optional
// fields are wildcards.
type SourceDTO struct {
	Kind       string  `json:"kind" binding:"required"`
	Channel    *byte   `json:"channel,omitempty"`
	Note       *byte   `json:"note,omitempty"`
	Controller *byte   `json:"controller,omitempty"`
	Program    *byte   `json:"program,omitempty"`
	Is14Bit    bool    `json:"is14bit,omitempty"`
	Number     *uint16 `json:"number,omitempty"`
	Registered bool    `json:"registered,omitempty"`
	Pattern    string  `json:"pattern,omitempty"`
	Address    string  `json:"address,omitempty"`
	ArgIndex   *int    `json:"argIndex,omitempty"`
	ArgType    string  `json:"argType,omitempty"`
	Encoding   string  `json:"encoding,omitempty"`
}

var kindNames = map[string]source.Kind{
	"note-on":          source.KindNoteOn,
	"note-off":         source.KindNoteOff,
	"control-change":   source.KindControlChange,
	"program-change":   source.KindProgramChange,
	"pitch-bend":       source.KindPitchBend,
	"channel-pressure": source.KindChannelPressure,
	"poly-pressure":    source.KindPolyPressure,
	"sysex":            source.KindSysEx,
	"parameter-number": source.KindParameterNumber,
	"osc":              source.KindOSC,
}

var oscTypeNames = map[string]source.OSCType{
	"float":  source.OSCFloat,
	"double": source.OSCDouble,
	"bool":   source.OSCBool,
	"nil":    source.OSCNil,
}

var encodingNames = map[string]source.RelativeEncoding{
	"":               source.EncodingNone,
	"none":           source.EncodingNone,
	"centered-64":    source.EncodingCentered64,
	"sign-magnitude": source.EncodingSignMagnitude,
	"inc-dec":        source.EncodingIncDec,
}

// ToSource converts the DTO into a source description.
func (d *SourceDTO) ToSource() (source.Source, error) {
	kind, ok := kindNames[d.Kind]
	if !ok {
		return source.Source{}, fmt.Errorf("unknown source kind %q", d.Kind)
	}
	src := source.Source{
		Kind:       kind,
		Is14Bit:    d.Is14Bit,
		Registered: d.Registered,
		Address:    d.Address,
	}
	if d.Channel != nil {
		src.Channel = source.Byte(*d.Channel)
	}
	if d.Note != nil {
		src.Note = source.Byte(*d.Note)
	}
	if d.Controller != nil {
		src.Controller = source.Byte(*d.Controller)
	}
	if d.Program != nil {
		src.Program = source.Byte(*d.Program)
	}
	if d.Number != nil {
		src.Number = source.U14(*d.Number)
	}
	if d.ArgIndex != nil {
		src.ArgIndex = source.Index(*d.ArgIndex)
	}
	if d.Pattern != "" {
		p, err := pattern.Parse(d.Pattern)
		if err != nil {
			return source.Source{}, fmt.Errorf("pattern: %w", err)
		}
		src.Pattern = p
	}
	if d.ArgType != "" {
		t, ok := oscTypeNames[d.ArgType]
		if !ok {
			return source.Source{}, fmt.Errorf("unknown OSC argument type %q", d.ArgType)
		}
		src.ArgType = t
	}
	enc, ok := encodingNames[d.Encoding]
	if !ok {
		return source.Source{}, fmt.Errorf("unknown relative encoding %q", d.Encoding)
	}
	src.Encoding = enc
	return src, nil
}

// FromSource converts a source description into its JSON form.
func FromSource(src *source.Source) SourceDTO {
	d := SourceDTO{
		Kind:       src.Kind.String(),
		Is14Bit:    src.Is14Bit,
		Registered: src.Registered,
		Address:    src.Address,
	}
	if v, ok := src.Channel.Get(); ok {
		d.Channel = &v
	}
	if v, ok := src.Note.Get(); ok {
		d.Note = &v
	}
	if v, ok := src.Controller.Get(); ok {
		d.Controller = &v
	}
	if v, ok := src.Program.Get(); ok {
		d.Program = &v
	}
	if v, ok := src.Number.Get(); ok {
		d.Number = &v
	}
	if i, ok := src.ArgIndex.Get(); ok {
		d.ArgIndex = &i
	}
	if src.Pattern != nil {
		d.Pattern = src.Pattern.String()
	}
	if src.Kind == source.KindOSC {
		d.ArgType = src.ArgType.String()
	}
	if src.Encoding != source.EncodingNone {
		d.Encoding = src.Encoding.String()
	}
	return d
}

// PayloadDTO is the JSON form of a matched payload.
type PayloadDTO struct {
	Domain string  `json:"domain" binding:"required"`
	Value  uint16  `json:"value,omitempty"`
	Float  float64 `json:"float,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Dir    int     `json:"dir,omitempty"`
}

// ToPayload converts the DTO into a payload.
func (d *PayloadDTO) ToPayload() (source.Payload, error) {
	p := source.Payload{Value: d.Value, Float: d.Float, Bool: d.Bool, Dir: d.Dir}
	switch d.Domain {
	case "7bit":
		p.Domain = source.Domain7Bit
	case "14bit":
		p.Domain = source.Domain14Bit
	case "float":
		p.Domain = source.DomainFloat
	case "bool":
		p.Domain = source.DomainBool
	default:
		return source.Payload{}, fmt.Errorf("unknown payload domain %q", d.Domain)
	}
	return p, nil
}
