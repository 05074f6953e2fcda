// Package control turns raw matched payloads into canonical control
// values: a unit float in [0, 1] for absolute sources, or a signed step
// count for relative (encoder-style) sources.
package control

import "fmt"

// ValueKind discriminates absolute and relative control values.
type ValueKind int

const (
	// KindAbsolute is a position in the unit interval.
	KindAbsolute ValueKind = iota
	// KindRelative is a signed number of steps.
	KindRelative
)

// Value is a canonical control value. It has no persistent identity; a
// fresh Value is produced per extraction.
type Value struct {
	kind  ValueKind
	unit  float64
	steps int
}

// Absolute returns an absolute control value, clamped into [0, 1].
func Absolute(unit float64) Value {
	if unit < 0 {
		unit = 0
	} else if unit > 1 {
		unit = 1
	}
	return Value{kind: KindAbsolute, unit: unit}
}

// Relative returns a relative control value of the given signed step count.
func Relative(steps int) Value {
	return Value{kind: KindRelative, steps: steps}
}

// Kind returns the value kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsRelative reports whether the value is a signed step count.
func (v Value) IsRelative() bool {
	return v.kind == KindRelative
}

// Unit returns the absolute position in [0, 1]. Zero for relative values.
func (v Value) Unit() float64 {
	return v.unit
}

// Steps returns the signed step count. Zero for absolute values.
func (v Value) Steps() int {
	return v.steps
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindRelative {
		return fmt.Sprintf("%+d steps", v.steps)
	}
	return fmt.Sprintf("%.4f", v.unit)
}
