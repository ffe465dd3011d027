package match

import "math"

// Flags mark which numeric readings of an 8-byte snapshot are plausible.
// The integer flags follow signed-range checks; the float flags only
// require enough observed bytes.
type Flags uint16

const (
	FlagI8 Flags = 1 << iota
	FlagI16
	FlagI32
	FlagI64
	FlagF32
	FlagF64
	FlagIneqForward
	FlagIneqReverse
)

const (
	FlagsInt   = FlagI8 | FlagI16 | FlagI32 | FlagI64
	FlagsFloat = FlagF32 | FlagF64
)

// Value is an 8-byte little-endian snapshot of target memory. Bytes
// beyond what was actually observed are zero.
type Value struct {
	Bits uint64
}

func (v Value) U8() uint8   { return uint8(v.Bits) }
func (v Value) U16() uint16 { return uint16(v.Bits) }
func (v Value) U32() uint32 { return uint32(v.Bits) }
func (v Value) U64() uint64 { return v.Bits }

func (v Value) I8() int8   { return int8(v.Bits) }
func (v Value) I16() int16 { return int16(v.Bits) }
func (v Value) I32() int32 { return int32(v.Bits) }
func (v Value) I64() int64 { return int64(v.Bits) }

func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) F64() float64 { return math.Float64frombits(v.Bits) }

// Observe builds a Value from a window of up to 8 bytes and derives the
// width flags the window supports. len(buf) below 8 clears every flag
// whose width exceeds it.
func Observe(buf []byte) (Value, Flags) {
	n := len(buf)
	if n > 8 {
		n = 8
	}

	var bits uint64
	for i := n - 1; i >= 0; i-- {
		bits = bits<<8 | uint64(buf[i])
	}

	return Value{Bits: bits}, observeFlags(bits, n)
}

func observeFlags(bits uint64, n int) Flags {
	var f Flags
	neg := int64(bits) < 0

	if n >= 1 && fitsSigned(bits, neg, math.MaxUint8, math.MinInt8) {
		f |= FlagI8
	}
	if n >= 2 && fitsSigned(bits, neg, math.MaxUint16, math.MinInt16) {
		f |= FlagI16
	}
	if n >= 4 && fitsSigned(bits, neg, math.MaxUint32, math.MinInt32) {
		f |= FlagI32
	}
	if n >= 8 {
		f |= FlagI64
	}
	if n >= 4 {
		f |= FlagF32
	}
	if n >= 8 {
		f |= FlagF64
	}

	return f
}

// fitsSigned reports whether the value is representable at a width with
// the given unsigned ceiling and signed floor.
func fitsSigned(bits uint64, neg bool, umax uint64, smin int64) bool {
	if neg {
		return int64(bits) >= smin
	}
	return bits <= umax
}
