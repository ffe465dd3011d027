package scan

import (
	"io"
	"strconv"

	"winnow/pkg/proc"
)

const wordSize = strconv.IntSize / 8

// windowProvider hands out consecutive observation windows of up to 8
// bytes across one region at a time. Next returns io.EOF once the
// region is exhausted; SetRegion rearms it for the next one.
type windowProvider interface {
	SetRegion(r proc.Region)
	Next() (addr uint64, window []byte, err error)
	Close() error
}

func stepFor(unaligned bool) uint64 {
	if unaligned {
		return 1
	}
	return 8
}

// fileWindows reads windows positionally out of /proc/<pid>/mem. Short
// windows only show up at the tail of the region.
type fileWindows struct {
	r      proc.MemoryReader
	step   uint64
	cur    uint64
	end    uint64
	buf    [8]byte
	closer io.Closer
}

func newFileWindows(r proc.MemoryReader, closer io.Closer, unaligned bool) *fileWindows {
	return &fileWindows{r: r, step: stepFor(unaligned), closer: closer}
}

func (w *fileWindows) SetRegion(r proc.Region) {
	w.cur, w.end = r.Start, r.End
}

func (w *fileWindows) Next() (uint64, []byte, error) {
	if w.cur >= w.end {
		return 0, nil, io.EOF
	}

	n := uint64(len(w.buf))
	if rest := w.end - w.cur; rest < n {
		n = rest
	}

	got, err := w.r.ReadMemory(w.buf[:n], w.cur)
	if err != nil {
		return 0, nil, err
	}
	if got == 0 {
		return 0, nil, io.EOF
	}

	addr := w.cur
	w.cur += w.step
	return addr, w.buf[:got], nil
}

func (w *fileWindows) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// wordPeeker is the slice of a ptrace target the peek provider needs.
type wordPeeker interface {
	PeekWord(addr uint64) (uint64, error)
}

// peekWindows slides an 8-byte window over a two-word ring filled by
// PTRACE_PEEKDATA. Each word is fetched once per region no matter the
// step, so the unaligned sweep costs the same number of peeks as the
// aligned one.
type peekWindows struct {
	p      wordPeeker
	step   uint64
	buf    [2 * wordSize]byte
	base   uint64
	valid  int
	cur    uint64
	end    uint64
	win    [8]byte
	detach io.Closer
}

func newPeekWindows(p wordPeeker, detach io.Closer, unaligned bool) *peekWindows {
	return &peekWindows{p: p, step: stepFor(unaligned), detach: detach}
}

func (w *peekWindows) SetRegion(r proc.Region) {
	w.cur, w.end = r.Start, r.End
	w.base = r.Start
	w.valid = 0
}

func (w *peekWindows) Next() (uint64, []byte, error) {
	if w.cur >= w.end {
		return 0, nil, io.EOF
	}

	n := uint64(len(w.win))
	if rest := w.end - w.cur; rest < n {
		n = rest
	}

	// Drop the stale word and peek ahead until the ring covers the
	// window.
	for w.base+uint64(w.valid) < w.cur+n {
		if w.valid == len(w.buf) {
			copy(w.buf[:], w.buf[wordSize:])
			w.base += wordSize
			w.valid -= wordSize
		}

		word, err := w.p.PeekWord(w.base + uint64(w.valid))
		if err != nil {
			return 0, nil, err
		}
		putWord(w.buf[w.valid:], word)
		w.valid += wordSize
	}

	off := w.cur - w.base
	copy(w.win[:n], w.buf[off:off+n])

	addr := w.cur
	w.cur += w.step
	return addr, w.win[:n], nil
}

func (w *peekWindows) Close() error {
	if w.detach == nil {
		return nil
	}
	return w.detach.Close()
}

func putWord(dst []byte, word uint64) {
	for i := 0; i < wordSize; i++ {
		dst[i] = byte(word >> (8 * uint(i)))
	}
}
