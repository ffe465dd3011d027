package match

import (
	"fmt"

	"golang.org/x/exp/constraints"
	e "winnow/error"
)

// Op selects the comparison applied to each window or candidate. The
// operators from OpChanged on compare against the stored snapshot and
// are only meaningful during a narrow pass.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpRange
	OpChanged
	OpUnchanged
	OpIncreased
	OpDecreased
)

var opNames = [...]string{
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpRange: "range", OpChanged: "changed", OpUnchanged: "unchanged",
	OpIncreased: "increased", OpDecreased: "decreased",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return opNames[op]
}

func ParseOp(s string) (Op, error) {
	for op, name := range opNames {
		if s == name {
			return Op(op), nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// Stateful reports whether the operator needs the stored snapshot.
func (op Op) Stateful() bool { return op >= OpChanged }

// NeedleCount is how many parsed values the operator consumes.
func (op Op) NeedleCount() int {
	switch {
	case op == OpRange:
		return 2
	case op.Stateful():
		return 0
	}
	return 1
}

// RangeFlag picks which bounds of a range comparison are inclusive.
type RangeFlag int

const (
	GtLt RangeFlag = iota
	GeLt
	GtLe
	GeLe
)

func ParseRangeFlag(s string) (RangeFlag, error) {
	switch s {
	case "", "gtlt":
		return GtLt, nil
	case "gelt":
		return GeLt, nil
	case "gtle":
		return GtLe, nil
	case "gele":
		return GeLe, nil
	}
	return 0, fmt.Errorf("range flag %q: %w", s, e.InvalidRangeFlag)
}

// Matcher evaluates one predicate. Scan and narrow passes use the same
// comparison code, so a scan for eq v followed by a narrow for ne v
// leaves nothing behind.
type Matcher struct {
	Op    Op
	Lo    *Needle
	Hi    *Needle
	Range RangeFlag
}

func NewMatcher(op Op, lo, hi *Needle, rf RangeFlag) (*Matcher, error) {
	switch op.NeedleCount() {
	case 1:
		if lo == nil {
			return nil, fmt.Errorf("%s needs a value", op)
		}
	case 2:
		if lo == nil || hi == nil {
			return nil, fmt.Errorf("%s needs two values", op)
		}
	}
	return &Matcher{Op: op, Lo: lo, Hi: hi, Range: rf}, nil
}

// MatchScan reports whether a freshly observed window of n bytes
// satisfies a stateless predicate.
func (m *Matcher) MatchScan(v Value, f Flags, n int) bool {
	switch m.Op {
	case OpEq:
		return equalMatch(v, f, n, m.Lo)
	case OpNe:
		return !equalMatch(v, f, n, m.Lo)
	case OpLt, OpLe, OpGt, OpGe:
		return m.orderedMatch(v, f)
	case OpRange:
		return m.rangeMatch(v, f)
	}
	return false
}

// MatchNarrow evaluates the predicate for a stored candidate against
// its freshly read window.
func (m *Matcher) MatchNarrow(ent *Entry, v Value, f Flags, n int) bool {
	switch m.Op {
	case OpChanged:
		return !sameAtWidest(ent, v)
	case OpUnchanged:
		return sameAtWidest(ent, v)
	case OpIncreased:
		return movedMatch(ent, v, f, OpGt)
	case OpDecreased:
		return movedMatch(ent, v, f, OpLt)
	}
	return m.MatchScan(v, f, n)
}

// equalMatch compares the window to the needle over the needle's
// significant byte length, so a 5-byte literal matches wherever its
// five bytes appear regardless of what the top three hold.
func equalMatch(v Value, f Flags, n int, nd *Needle) bool {
	if nd.IsFloat() {
		if f&nd.Flags&FlagF64 != 0 {
			return v.F64() == nd.Val.F64()
		}
		if f&nd.Flags&FlagF32 != 0 {
			return v.F32() == nd.F32Value()
		}
		return false
	}

	if n < nd.ByteLen {
		return false
	}
	return maskBytes(v.Bits, nd.ByteLen) == maskBytes(nd.Val.Bits, nd.ByteLen)
}

func maskBytes(bits uint64, n int) uint64 {
	if n >= 8 {
		return bits
	}
	return bits & (1<<(8*uint(n)) - 1)
}

// orderedMatch dispatches at the largest width the needle advertises.
// Integer comparisons accept either the unsigned or the signed reading.
func (m *Matcher) orderedMatch(v Value, f Flags) bool {
	nd := m.Lo
	if nd.IsFloat() {
		if f&nd.Flags&FlagF64 != 0 {
			return ordered(m.Op, v.F64(), nd.Val.F64())
		}
		if f&nd.Flags&FlagF32 != 0 {
			return ordered(m.Op, v.F32(), nd.F32Value())
		}
		return false
	}

	return ordered(m.Op, v.Bits, nd.Val.Bits) ||
		ordered(m.Op, v.I64(), nd.Val.I64())
}

func (m *Matcher) rangeMatch(v Value, f Flags) bool {
	if m.Lo.IsFloat() || m.Hi.IsFloat() {
		if f&FlagF64 == 0 {
			return false
		}
		return within(m.Range, v.F64(), m.Lo.Val.F64(), m.Hi.Val.F64())
	}

	return within(m.Range, v.Bits, m.Lo.Val.Bits, m.Hi.Val.Bits) ||
		within(m.Range, v.I64(), m.Lo.Val.I64(), m.Hi.Val.I64())
}

func ordered[T constraints.Ordered](op Op, a, b T) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

func within[T constraints.Ordered](rf RangeFlag, v, lo, hi T) bool {
	var low, high bool
	switch rf {
	case GtLt:
		low, high = v > lo, v < hi
	case GeLt:
		low, high = v >= lo, v < hi
	case GtLe:
		low, high = v > lo, v <= hi
	case GeLe:
		low, high = v >= lo, v <= hi
	}
	return low && high
}

// sameAtWidest compares old and new snapshots at the widest width the
// stored flags advertise.
func sameAtWidest(ent *Entry, v Value) bool {
	w := widestBytes(ent.Flags)
	return maskBytes(v.Bits, w) == maskBytes(ent.Val.Bits, w)
}

func widestBytes(f Flags) int {
	switch {
	case f&(FlagI64|FlagF64) != 0:
		return 8
	case f&(FlagI32|FlagF32) != 0:
		return 4
	case f&FlagI16 != 0:
		return 2
	}
	return 1
}

// movedMatch walks the stored widths from narrowest up; a candidate
// counts as increased or decreased as soon as any advertised width
// moved in that direction, under either signedness.
func movedMatch(ent *Entry, v Value, f Flags, dir Op) bool {
	old, sf := ent.Val, ent.Flags

	if sf&FlagI8 != 0 &&
		(ordered(dir, v.I8(), old.I8()) || ordered(dir, v.U8(), old.U8())) {
		return true
	}
	if sf&FlagI16 != 0 &&
		(ordered(dir, v.I16(), old.I16()) || ordered(dir, v.U16(), old.U16())) {
		return true
	}
	if sf&FlagI32 != 0 &&
		(ordered(dir, v.I32(), old.I32()) || ordered(dir, v.U32(), old.U32())) {
		return true
	}
	if sf&FlagI64 != 0 &&
		(ordered(dir, v.I64(), old.I64()) || ordered(dir, v.U64(), old.U64())) {
		return true
	}
	if sf&f&FlagF32 != 0 && ordered(dir, v.F32(), old.F32()) {
		return true
	}
	if sf&f&FlagF64 != 0 && ordered(dir, v.F64(), old.F64()) {
		return true
	}

	return false
}
