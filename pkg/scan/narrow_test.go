package scan

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	e "winnow/error"
	"winnow/pkg/match"
	"winnow/pkg/proc"
)

func mustMatcher(t *testing.T, op match.Op, needle string) *match.Matcher {
	t.Helper()
	var nd *match.Needle
	if needle != "" {
		var err error
		nd, err = match.ParseNeedle(needle)
		if err != nil {
			t.Fatal(err)
		}
	}
	m, err := match.NewMatcher(op, nd, nil, match.GtLt)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func scanInto(t *testing.T, mem *fakeMem, needle string) *match.List {
	t.Helper()
	list := match.NewList()
	prov := newFileWindows(mem, nil, false)
	err := scanPass(context.Background(), prov, []proc.Region{mem.region(1)}, eqMatcher(t, needle), list, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestNarrowDecreasedRefreshesSnapshot(t *testing.T) {
	mem := u64Mem(0x1000, 41, 42, 42)
	list := scanInto(t, mem, "42")
	if list.Size() != 2 {
		t.Fatalf("seed scan found %d, want 2", list.Size())
	}

	// One of the two candidates drops, the other survives.
	binary.LittleEndian.PutUint64(mem.data[8:], 40)

	cand := &fileCandidates{r: mem}
	err := narrowPass(context.Background(), cand, mustMatcher(t, match.OpDecreased, ""), list, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Size() != 1 {
		t.Fatalf("survivors = %d, want 1", list.Size())
	}

	list.Each(func(id int, ent match.Entry) bool {
		if ent.Addr != 0x1008 {
			t.Errorf("survivor addr = %#x", ent.Addr)
		}
		if ent.Val.Bits != 40 {
			t.Errorf("snapshot not refreshed: %d", ent.Val.Bits)
		}
		return true
	})
}

func TestNarrowEqThenNeEmpties(t *testing.T) {
	mem := u64Mem(0x1000, 42, 42)
	list := scanInto(t, mem, "42")

	cand := &fileCandidates{r: mem}
	err := narrowPass(context.Background(), cand, mustMatcher(t, match.OpNe, "42"), list, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Size() != 0 {
		t.Errorf("ne over unchanged memory left %d candidates", list.Size())
	}
}

func TestNarrowUnchangedIdempotent(t *testing.T) {
	mem := u64Mem(0x1000, 7, 7, 7)
	list := scanInto(t, mem, "7")
	before := list.Size()

	cand := &fileCandidates{r: mem}
	for i := 0; i < 3; i++ {
		if err := narrowPass(context.Background(), cand, mustMatcher(t, match.OpUnchanged, ""), list, nopLogger{}); err != nil {
			t.Fatal(err)
		}
		if list.Size() != before {
			t.Fatalf("pass %d: %d -> %d", i, before, list.Size())
		}
	}
}

// failingReader drops specific addresses or fails the whole pass.
type failingReader struct {
	mem  *fakeMem
	fail map[uint64]error
}

func (f *failingReader) ReadWindow(addr uint64, buf []byte) (int, error) {
	if err, ok := f.fail[addr]; ok {
		return 0, err
	}
	return f.mem.ReadMemory(buf, addr)
}

func (f *failingReader) Close() error { return nil }

func TestNarrowDropsUnreadable(t *testing.T) {
	mem := u64Mem(0x1000, 5, 5, 5)
	list := scanInto(t, mem, "5")

	cand := &failingReader{mem: mem, fail: map[uint64]error{
		0x1008: fmt.Errorf("region vanished: %w", e.PermissionDenied),
	}}
	err := narrowPass(context.Background(), cand, mustMatcher(t, match.OpUnchanged, ""), list, nopLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Size() != 2 {
		t.Errorf("survivors = %d, want 2", list.Size())
	}
	list.Each(func(id int, ent match.Entry) bool {
		if ent.Addr == 0x1008 {
			t.Error("unreadable candidate survived")
		}
		return true
	})
}

func TestNarrowAbortsWhenTargetGone(t *testing.T) {
	mem := u64Mem(0x1000, 5, 5, 5)
	list := scanInto(t, mem, "5")
	before := list.Size()

	cand := &failingReader{mem: mem, fail: map[uint64]error{
		0x1008: fmt.Errorf("read at %#x: %w", uint64(0x1008), e.TargetGone),
	}}
	err := narrowPass(context.Background(), cand, mustMatcher(t, match.OpUnchanged, ""), list, nopLogger{})
	if err == nil {
		t.Fatal("vanished target should abort the pass")
	}
	if list.Size() != before {
		t.Errorf("aborted pass dropped candidates: %d -> %d", before, list.Size())
	}
}

func TestPeekCandidatesUnalignedAddr(t *testing.T) {
	mem := u64Mem(0x2000, 0x0807060504030201, 0x100f0e0d0c0b0a09)
	cand := &peekCandidates{p: &fakePeeker{mem: mem}}

	var buf [8]byte
	n, err := cand.ReadWindow(0x2003, buf[:])
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Fatalf("n = %d, want 8", n)
	}
	want := []byte{4, 5, 6, 7, 8, 9, 0xa, 0xb}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("buf = %x, want %x", buf[:], want)
		}
	}
}

func TestNarrowContextCancel(t *testing.T) {
	mem := u64Mem(0x1000, 5, 5)
	list := scanInto(t, mem, "5")
	before := list.Size()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cand := &fileCandidates{r: mem}
	err := narrowPass(ctx, cand, mustMatcher(t, match.OpUnchanged, ""), list, nopLogger{})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if list.Size() != before {
		t.Errorf("cancelled narrow dropped candidates")
	}
}
