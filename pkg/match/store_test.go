package match

import (
	"errors"
	"testing"
)

func fillList(n int) *List {
	l := NewList()
	for i := 0; i < n; i++ {
		l.Push(Entry{Addr: uint64(i), Val: Value{Bits: uint64(i)}, Flags: FlagI64})
	}
	return l
}

func TestListPushAcrossChunks(t *testing.T) {
	l := fillList(1700)

	if l.Size() != 1700 {
		t.Fatalf("Size = %d, want 1700", l.Size())
	}
	if len(l.chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(l.chunks))
	}
	for i, want := range []int{800, 800, 100} {
		if got := l.chunks[i].used(); got != want {
			t.Errorf("chunk %d used = %d, want %d", i, got, want)
		}
	}
}

func TestListEachOrderAndIDs(t *testing.T) {
	l := fillList(1000)

	next := 1
	l.Each(func(id int, ent Entry) bool {
		if id != next {
			t.Fatalf("id = %d, want %d", id, next)
		}
		if ent.Addr != uint64(id-1) {
			t.Fatalf("id %d holds addr %#x", id, ent.Addr)
		}
		next++
		return true
	})
	if next != 1001 {
		t.Errorf("visited %d entries, want 1000", next-1)
	}

	// Early stop.
	seen := 0
	l.Each(func(id int, ent Entry) bool {
		seen++
		return seen < 5
	})
	if seen != 5 {
		t.Errorf("early stop visited %d, want 5", seen)
	}
}

func TestIterateDropAndCompact(t *testing.T) {
	l := fillList(1700)

	err := l.Iterate(func(ent *Entry) (Action, error) {
		if ent.Addr%10 == 0 {
			return Keep, nil
		}
		return Drop, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.Size() != 170 {
		t.Fatalf("Size after drop = %d, want 170", l.Size())
	}

	l.Compact()
	if len(l.chunks) != 1 {
		t.Fatalf("chunks after compact = %d, want 1", len(l.chunks))
	}
	c := l.chunks[0]
	if c.used() != 170 {
		t.Fatalf("used = %d, want 170", c.used())
	}
	if cap(c.entries) != 200 {
		t.Errorf("cap = %d, want the 200 tier", cap(c.entries))
	}

	kept := map[uint64]bool{}
	l.Each(func(id int, ent Entry) bool {
		if ent.Addr%10 != 0 {
			t.Fatalf("dropped addr %#x survived", ent.Addr)
		}
		kept[ent.Addr] = true
		return true
	})
	if len(kept) != 170 {
		t.Errorf("distinct survivors = %d, want 170", len(kept))
	}
}

func TestIterateDropAll(t *testing.T) {
	l := fillList(900)

	err := l.Iterate(func(ent *Entry) (Action, error) {
		return Drop, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.Size() != 0 {
		t.Errorf("Size = %d, want 0", l.Size())
	}
	if len(l.chunks) != 0 {
		t.Errorf("empty chunks were not unlinked: %d left", len(l.chunks))
	}
}

func TestIterateStopsOnError(t *testing.T) {
	l := fillList(20)
	boom := errors.New("boom")

	visited := 0
	err := l.Iterate(func(ent *Entry) (Action, error) {
		visited++
		if visited == 5 {
			return Keep, boom
		}
		return Drop, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if visited != 5 {
		t.Errorf("visited = %d, want 5", visited)
	}
	if l.Size() != 16 {
		t.Errorf("Size = %d, want 16", l.Size())
	}
}

func TestIterateUpdatesInPlace(t *testing.T) {
	l := fillList(3)

	err := l.Iterate(func(ent *Entry) (Action, error) {
		ent.Val = Value{Bits: ent.Val.Bits + 100}
		return Keep, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	l.Each(func(id int, ent Entry) bool {
		if ent.Val.Bits != ent.Addr+100 {
			t.Errorf("entry %d not updated: %d", id, ent.Val.Bits)
		}
		return true
	})
}

func TestClear(t *testing.T) {
	l := fillList(10)
	l.Clear()
	if l.Size() != 0 || len(l.chunks) != 0 {
		t.Errorf("Clear left size=%d chunks=%d", l.Size(), len(l.chunks))
	}
	l.Push(Entry{Addr: 1})
	if l.Size() != 1 {
		t.Errorf("push after clear: size = %d", l.Size())
	}
}

func TestTierFor(t *testing.T) {
	for n, want := range map[int]int{
		0: 50, 1: 50, 50: 50, 51: 100, 170: 200, 401: 800, 800: 800, 900: 800,
	} {
		if got := tierFor(n); got != want {
			t.Errorf("tierFor(%d) = %d, want %d", n, got, want)
		}
	}
}
