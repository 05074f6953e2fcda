// Package source models control-surface input sources: the classes of MIDI
// and OSC events a mapping can listen for, with optionally wildcarded
// fields, and the matcher that decides whether a concrete incoming event
// belongs to a source and extracts its raw payload.
package source

import "strconv"

// OptByte is an optional 7-bit field of a source. The zero value is the
// wildcard, which matches any incoming value. No sentinel byte values are
// used, so the full 0-255 range stays expressible.
type OptByte struct {
	value   byte
	present bool
}

// Byte returns a concrete OptByte.
func Byte(v byte) OptByte {
	return OptByte{value: v, present: true}
}

// AnyByte returns the wildcard OptByte.
func AnyByte() OptByte {
	return OptByte{}
}

// IsWildcard reports whether the field matches any value.
func (o OptByte) IsWildcard() bool {
	return !o.present
}

// Get returns the concrete value, if any.
func (o OptByte) Get() (byte, bool) {
	return o.value, o.present
}

// Matches reports whether the field accepts the given concrete value.
func (o OptByte) Matches(v byte) bool {
	return !o.present || o.value == v
}

// String implements fmt.Stringer; wildcards render as "*".
func (o OptByte) String() string {
	if !o.present {
		return "*"
	}
	return strconv.Itoa(int(o.value))
}

// OptU14 is an optional 14-bit field (0-16383). The zero value is the
// wildcard.
type OptU14 struct {
	value   uint16
	present bool
}

// U14 returns a concrete OptU14.
func U14(v uint16) OptU14 {
	return OptU14{value: v, present: true}
}

// AnyU14 returns the wildcard OptU14.
func AnyU14() OptU14 {
	return OptU14{}
}

// IsWildcard reports whether the field matches any value.
func (o OptU14) IsWildcard() bool {
	return !o.present
}

// Get returns the concrete value, if any.
func (o OptU14) Get() (uint16, bool) {
	return o.value, o.present
}

// Matches reports whether the field accepts the given concrete value.
func (o OptU14) Matches(v uint16) bool {
	return !o.present || o.value == v
}

// String implements fmt.Stringer; wildcards render as "*".
func (o OptU14) String() string {
	if !o.present {
		return "*"
	}
	return strconv.Itoa(int(o.value))
}

// OptIndex is an optional argument index for OSC sources. Absent means the
// source ignores arguments and acts as a trigger.
type OptIndex struct {
	value   int
	present bool
}

// Index returns a concrete OptIndex.
func Index(i int) OptIndex {
	return OptIndex{value: i, present: true}
}

// NoIndex returns the absent OptIndex.
func NoIndex() OptIndex {
	return OptIndex{}
}

// Get returns the index, if any.
func (o OptIndex) Get() (int, bool) {
	return o.value, o.present
}

// String implements fmt.Stringer; absent renders as "-".
func (o OptIndex) String() string {
	if !o.present {
		return "-"
	}
	return strconv.Itoa(o.value)
}
