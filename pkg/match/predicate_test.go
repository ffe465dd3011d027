package match

import (
	"math"
	"testing"
)

func mustNeedle(t *testing.T, s string) *Needle {
	t.Helper()
	n, err := ParseNeedle(s)
	if err != nil {
		t.Fatalf("ParseNeedle(%q): %v", s, err)
	}
	return n
}

func mustMatcher(t *testing.T, op Op, lo, hi *Needle, rf RangeFlag) *Matcher {
	t.Helper()
	m, err := NewMatcher(op, lo, hi, rf)
	if err != nil {
		t.Fatalf("NewMatcher(%s): %v", op, err)
	}
	return m
}

func TestParseOp(t *testing.T) {
	for op := OpEq; op <= OpDecreased; op++ {
		got, err := ParseOp(op.String())
		if err != nil {
			t.Fatalf("ParseOp(%q): %v", op.String(), err)
		}
		if got != op {
			t.Errorf("ParseOp(%q) = %v", op.String(), got)
		}
	}

	if _, err := ParseOp("between"); err == nil {
		t.Error("unknown operator should fail")
	}
}

func TestEqualMatchMasksToNeedleLength(t *testing.T) {
	m := mustMatcher(t, OpEq, mustNeedle(t, "42"), nil, GtLt)

	tests := []struct {
		name string
		buf  []byte
		want bool
	}{
		{"exact window", []byte{42, 0, 0, 0, 0, 0, 0, 0}, true},
		{"low byte matches, garbage above", []byte{42, 0, 0, 0, 1, 0, 0, 0}, true},
		{"low byte differs", []byte{41, 0, 0, 0, 0, 0, 0, 0}, false},
		{"one byte window", []byte{42}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, f := Observe(tt.buf)
			if got := m.MatchScan(v, f, len(tt.buf)); got != tt.want {
				t.Errorf("eq 42 on %v = %v, want %v", tt.buf, got, tt.want)
			}
		})
	}
}

func TestEqualMatchShortWindow(t *testing.T) {
	m := mustMatcher(t, OpEq, mustNeedle(t, "256"), nil, GtLt)

	v, f := Observe([]byte{0})
	if m.MatchScan(v, f, 1) {
		t.Error("window shorter than the needle's significant bytes must not match")
	}

	v, f = Observe([]byte{0, 1})
	if !m.MatchScan(v, f, 2) {
		t.Error("two byte window holding 256 should match")
	}
}

func TestNotEqual(t *testing.T) {
	m := mustMatcher(t, OpNe, mustNeedle(t, "42"), nil, GtLt)

	v, f := Observe([]byte{41, 0, 0, 0, 0, 0, 0, 0})
	if !m.MatchScan(v, f, 8) {
		t.Error("ne 42 should accept 41")
	}

	v, f = Observe([]byte{42, 0, 0, 0, 0, 0, 0, 0})
	if m.MatchScan(v, f, 8) {
		t.Error("ne 42 should reject 42")
	}
}

func TestOrderedMatchDualSign(t *testing.T) {
	// -5 as i64. Unsigned reading is huge, signed reading is small;
	// either satisfying the comparison is enough.
	m := mustMatcher(t, OpLt, mustNeedle(t, "-5"), nil, GtLt)

	v, f := Observe([]byte{0xf6, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) // -10
	if !m.MatchScan(v, f, 8) {
		t.Error("-10 < -5 under the signed reading")
	}

	v, f = Observe([]byte{3, 0, 0, 0, 0, 0, 0, 0})
	if !m.MatchScan(v, f, 8) {
		t.Error("3 < 0xff...fb under the unsigned reading")
	}
}

func TestOrderedMatchFloat(t *testing.T) {
	m := mustMatcher(t, OpGt, mustNeedle(t, "1.5"), nil, GtLt)

	v := Value{Bits: math.Float64bits(2.5)}
	if !m.MatchScan(v, FlagF64, 8) {
		t.Error("2.5 > 1.5")
	}

	v.Bits = math.Float64bits(0.5)
	if m.MatchScan(v, FlagF64, 8) {
		t.Error("0.5 > 1.5 should fail")
	}

	// Window too short for any float reading the needle supports.
	if m.MatchScan(v, FlagI8, 1) {
		t.Error("no shared float width should never match")
	}
}

func TestRangeMatchBounds(t *testing.T) {
	lo, hi := mustNeedle(t, "10"), mustNeedle(t, "20")

	tests := []struct {
		rf   RangeFlag
		val  byte
		want bool
	}{
		{GtLt, 10, false},
		{GtLt, 11, true},
		{GtLt, 20, false},
		{GeLt, 10, true},
		{GeLt, 20, false},
		{GtLe, 10, false},
		{GtLe, 20, true},
		{GeLe, 10, true},
		{GeLe, 20, true},
		{GeLe, 21, false},
	}

	for _, tt := range tests {
		m := mustMatcher(t, OpRange, lo, hi, tt.rf)
		v, f := Observe([]byte{tt.val, 0, 0, 0, 0, 0, 0, 0})
		if got := m.MatchScan(v, f, 8); got != tt.want {
			t.Errorf("range(%v) on %d = %v, want %v", tt.rf, tt.val, got, tt.want)
		}
	}
}

func TestRangeDegenerate(t *testing.T) {
	n := mustNeedle(t, "10")

	m := mustMatcher(t, OpRange, n, n, GtLt)
	v, f := Observe([]byte{10, 0, 0, 0, 0, 0, 0, 0})
	if m.MatchScan(v, f, 8) {
		t.Error("exclusive range with equal bounds selects nothing")
	}

	m = mustMatcher(t, OpRange, n, n, GeLe)
	if !m.MatchScan(v, f, 8) {
		t.Error("inclusive range with equal bounds behaves like eq")
	}
}

func TestStatefulNarrow(t *testing.T) {
	oldV, oldF := Observe([]byte{42, 0, 0, 0, 0, 0, 0, 0})
	ent := &Entry{Addr: 0x1000, Val: oldV, Flags: oldF}

	newV, newF := Observe([]byte{40, 0, 0, 0, 0, 0, 0, 0})

	tests := []struct {
		op   Op
		want bool
	}{
		{OpChanged, true},
		{OpUnchanged, false},
		{OpDecreased, true},
		{OpIncreased, false},
	}

	for _, tt := range tests {
		m := mustMatcher(t, tt.op, nil, nil, GtLt)
		if got := m.MatchNarrow(ent, newV, newF, 8); got != tt.want {
			t.Errorf("%s on 42 -> 40 = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestUnchangedSameSnapshot(t *testing.T) {
	v, f := Observe([]byte{7, 0, 0, 0, 0, 0, 0, 0})
	ent := &Entry{Addr: 0x1000, Val: v, Flags: f}

	m := mustMatcher(t, OpUnchanged, nil, nil, GtLt)
	if !m.MatchNarrow(ent, v, f, 8) {
		t.Error("identical snapshot is unchanged")
	}
}

func TestMovedMatchNarrowWidth(t *testing.T) {
	// Stored flags advertise only i8; movement is judged at that width.
	ent := &Entry{
		Addr:  0x2000,
		Val:   Value{Bits: 100},
		Flags: FlagI8,
	}

	m := mustMatcher(t, OpIncreased, nil, nil, GtLt)
	v := Value{Bits: 120}
	if !m.MatchNarrow(ent, v, FlagI8, 1) {
		t.Error("100 -> 120 increased at i8")
	}

	m = mustMatcher(t, OpDecreased, nil, nil, GtLt)
	if m.MatchNarrow(ent, v, FlagI8, 1) {
		t.Error("100 -> 120 did not decrease")
	}
}

func TestNewMatcherValidation(t *testing.T) {
	if _, err := NewMatcher(OpEq, nil, nil, GtLt); err == nil {
		t.Error("eq without a needle should fail")
	}
	if _, err := NewMatcher(OpRange, mustNeedle(t, "1"), nil, GtLt); err == nil {
		t.Error("range with one needle should fail")
	}
	if _, err := NewMatcher(OpChanged, nil, nil, GtLt); err != nil {
		t.Errorf("changed takes no needles: %v", err)
	}
}

func TestParseRangeFlag(t *testing.T) {
	for in, want := range map[string]RangeFlag{
		"": GtLt, "gtlt": GtLt, "gelt": GeLt, "gtle": GtLe, "gele": GeLe,
	} {
		got, err := ParseRangeFlag(in)
		if err != nil {
			t.Fatalf("ParseRangeFlag(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseRangeFlag(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseRangeFlag("lege"); err == nil {
		t.Error("bad range flag should fail")
	}
}
