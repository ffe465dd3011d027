package match

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	e "winnow/error"
)

// Needle is a parsed numeric literal used as the right-hand side of a
// comparison. Integer literals take bases 10, 16 (0x), 8 (0/0o) and
// 2 (0b); everything else goes down the float path.
type Needle struct {
	Val     Value
	Flags   Flags
	ByteLen int

	neg     bool
	isFloat bool
}

func ParseNeedle(s string) (*Needle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("parse needle: %w", e.NeedleParse)
	}

	if n, ok := parseIntNeedle(s); ok {
		return n, nil
	}
	if n, ok := parseFloatNeedle(s); ok {
		return n, nil
	}

	return nil, fmt.Errorf("parse needle %q: %w", s, e.NeedleParse)
}

func parseIntNeedle(s string) (*Needle, bool) {
	var bits uint64

	u, err := strconv.ParseUint(s, 0, 64)
	if err == nil {
		bits = u
	} else {
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, false
		}
		bits = uint64(i)
	}

	// The sign comes from the full 64-bit signed reading of the parsed
	// value, and the width flags from signed-range checks against it.
	neg := int64(bits) < 0

	n := &Needle{
		Val:     Value{Bits: bits},
		Flags:   FlagI64,
		ByteLen: significantBytes(bits, neg),
		neg:     neg,
	}

	if fitsSigned(bits, neg, math.MaxUint8, math.MinInt8) {
		n.Flags |= FlagI8
	}
	if fitsSigned(bits, neg, math.MaxUint16, math.MinInt16) {
		n.Flags |= FlagI16
	}
	if fitsSigned(bits, neg, math.MaxUint32, math.MinInt32) {
		n.Flags |= FlagI32
	}

	return n, true
}

func parseFloatNeedle(s string) (*Needle, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}

	n := &Needle{
		Val:     Value{Bits: math.Float64bits(f)},
		Flags:   FlagF64,
		ByteLen: 8,
		isFloat: true,
	}

	// f32 only when the whole literal parses at single precision, not
	// when the magnitude merely looks small enough.
	if _, err := strconv.ParseFloat(s, 32); err == nil {
		n.Flags |= FlagF32
	}

	return n, true
}

// significantBytes is the count of low bytes needed to reproduce the
// value. Negative values carry their sign in the top byte, so they are
// always full width.
func significantBytes(bits uint64, neg bool) int {
	if neg {
		return 8
	}

	n := 1
	for bits > math.MaxUint8 {
		bits >>= 8
		n++
	}
	return n
}

func (n *Needle) IsFloat() bool { return n.isFloat }

// F32Value is the needle at single precision. The payload holds double
// bits, so this converts rather than reinterpreting the low word.
func (n *Needle) F32Value() float32 { return float32(n.Val.F64()) }

// String renders the canonical literal; parsing it back yields an equal
// needle.
func (n *Needle) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.Val.F64(), 'g', -1, 64)
	}
	if n.neg {
		return strconv.FormatInt(n.Val.I64(), 10)
	}
	return strconv.FormatUint(n.Val.Bits, 10)
}
