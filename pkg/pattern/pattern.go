// Package pattern implements a small matching language for variable-length
// MIDI byte sequences such as SysEx dumps. A textual spec like
// "F0 43 XX 10-1F ..." compiles into an immutable Pattern that can be
// matched against concrete byte slices.
package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for the pattern grammar.
var (
	// ErrSyntax indicates a token that is not a hex pair, XX, lo-hi or "...".
	ErrSyntax = errors.New("invalid pattern syntax")
	// ErrInvalidRange indicates a lo-hi token with lo > hi.
	ErrInvalidRange = errors.New("invalid byte range")
	// ErrMisplacedTail indicates a "..." token before the final position.
	ErrMisplacedTail = errors.New("open tail must be the last token")
)

// ParseError describes why a textual pattern spec failed to compile.
type ParseError struct {
	Token string // offending token
	Pos   int    // zero-based token index
	Err   error  // one of the sentinel errors above
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern token %d %q: %v", e.Pos, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// segKind discriminates the segment variants.
type segKind int

const (
	segLiteral segKind = iota
	segWildcard
	segRange
	segOpenTail
)

// segment is one compiled pattern element. Literal, Wildcard and Range
// consume exactly one input byte; OpenTail consumes all remaining bytes.
type segment struct {
	kind segKind
	lo   byte // literal value, or range low
	hi   byte // range high
}

// Pattern is a compiled byte-sequence pattern. The zero value matches only
// the empty byte sequence. Patterns are immutable after Parse and safe for
// concurrent use.
type Pattern struct {
	segments []segment
	openTail bool
}

const tailToken = "..."

// Parse compiles a textual pattern spec. Tokens are space-separated: a hex
// pair (literal byte), "XX" (single-byte wildcard), "lo-hi" (inclusive hex
// range) or "..." (open tail, final position only). The returned error is a
// *ParseError wrapping ErrSyntax, ErrInvalidRange or ErrMisplacedTail.
func Parse(spec string) (*Pattern, error) {
	tokens := strings.Fields(spec)
	p := &Pattern{segments: make([]segment, 0, len(tokens))}
	for i, tok := range tokens {
		if p.openTail {
			// Anything after "..." means the tail was not last.
			return nil, &ParseError{Token: tailToken, Pos: i - 1, Err: ErrMisplacedTail}
		}
		seg, err := classify(tok)
		if err != nil {
			return nil, &ParseError{Token: tok, Pos: i, Err: err}
		}
		if seg.kind == segOpenTail {
			p.openTail = true
			continue
		}
		p.segments = append(p.segments, seg)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for fixed patterns
// in variable declarations.
func MustParse(spec string) *Pattern {
	p, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// classify turns a single token into a segment.
func classify(tok string) (segment, error) {
	switch {
	case tok == tailToken:
		return segment{kind: segOpenTail}, nil
	case strings.EqualFold(tok, "XX"):
		return segment{kind: segWildcard}, nil
	case len(tok) == 5 && tok[2] == '-':
		lo, err1 := parseHexByte(tok[:2])
		hi, err2 := parseHexByte(tok[3:])
		if err1 != nil || err2 != nil {
			return segment{}, ErrSyntax
		}
		if lo > hi {
			return segment{}, ErrInvalidRange
		}
		return segment{kind: segRange, lo: lo, hi: hi}, nil
	case len(tok) == 2:
		b, err := parseHexByte(tok)
		if err != nil {
			return segment{}, ErrSyntax
		}
		return segment{kind: segLiteral, lo: b}, nil
	default:
		return segment{}, ErrSyntax
	}
}

func parseHexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

// Matches reports whether the byte sequence satisfies the pattern. Segments
// are consumed left to right, one byte each; the open tail, if present,
// accepts any remaining bytes (including none). Without an open tail the
// sequence length must equal the segment count. Runs in O(len(bytes)).
func (p *Pattern) Matches(bytes []byte) bool {
	if len(bytes) < len(p.segments) {
		return false
	}
	if !p.openTail && len(bytes) != len(p.segments) {
		return false
	}
	for i, seg := range p.segments {
		b := bytes[i]
		switch seg.kind {
		case segLiteral:
			if b != seg.lo {
				return false
			}
		case segRange:
			if b < seg.lo || b > seg.hi {
				return false
			}
		case segWildcard:
			// Any byte.
		}
	}
	return true
}

// Len returns the number of byte-consuming segments (the minimum input
// length the pattern accepts).
func (p *Pattern) Len() int {
	return len(p.segments)
}

// HasOpenTail reports whether the pattern accepts arbitrary trailing bytes.
func (p *Pattern) HasOpenTail() bool {
	return p.openTail
}

// String renders the canonical textual spec: uppercase hex, "XX" wildcards
// and a trailing "..." for the open tail. The result reparses to a pattern
// with identical match behavior.
func (p *Pattern) String() string {
	var sb strings.Builder
	for i, seg := range p.segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch seg.kind {
		case segLiteral:
			fmt.Fprintf(&sb, "%02X", seg.lo)
		case segWildcard:
			sb.WriteString("XX")
		case segRange:
			fmt.Fprintf(&sb, "%02X-%02X", seg.lo, seg.hi)
		}
	}
	if p.openTail {
		if len(p.segments) > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tailToken)
	}
	return sb.String()
}

// Equal reports whether two patterns have identical match behavior.
func (p *Pattern) Equal(other *Pattern) bool {
	if p.openTail != other.openTail || len(p.segments) != len(other.segments) {
		return false
	}
	for i, seg := range p.segments {
		if seg != other.segments[i] {
			return false
		}
	}
	return true
}
