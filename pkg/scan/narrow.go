package scan

import (
	"context"
	"errors"
	"io"

	"winnow/pkg/logflags"
	"winnow/pkg/match"
	"winnow/pkg/proc"
	e "winnow/error"
)

// candidateReader re-reads the 8-byte window of one stored candidate.
type candidateReader interface {
	ReadWindow(addr uint64, buf []byte) (int, error)
	Close() error
}

type fileCandidates struct {
	r      proc.MemoryReader
	closer io.Closer
}

func (c *fileCandidates) ReadWindow(addr uint64, buf []byte) (int, error) {
	return c.r.ReadMemory(buf, addr)
}

func (c *fileCandidates) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

type peekCandidates struct {
	p      wordPeeker
	detach io.Closer
}

// ReadWindow peeks the word or two covering addr and copies the window
// out of the middle.
func (c *peekCandidates) ReadWindow(addr uint64, buf []byte) (int, error) {
	base := addr &^ uint64(wordSize-1)

	var tmp [2 * wordSize]byte
	need := addr + uint64(len(buf)) - base
	have := 0
	for uint64(have) < need {
		word, err := c.p.PeekWord(base + uint64(have))
		if err != nil {
			return 0, err
		}
		putWord(tmp[have:], word)
		have += wordSize
	}

	off := addr - base
	return copy(buf, tmp[off:off+uint64(len(buf))]), nil
}

func (c *peekCandidates) Close() error {
	if c.detach == nil {
		return nil
	}
	return c.detach.Close()
}

// narrowPass re-reads every candidate and keeps the ones the matcher
// still accepts, refreshing their snapshot and flags. Candidates whose
// window can no longer be read are dropped; a vanished target aborts
// the pass instead.
func narrowPass(ctx context.Context, cand candidateReader, m *match.Matcher, list *match.List, log logflags.Logger) error {
	before := list.Size()

	err := list.Iterate(func(ent *match.Entry) (match.Action, error) {
		if err := ctx.Err(); err != nil {
			return match.Keep, err
		}

		var buf [8]byte
		n, err := cand.ReadWindow(ent.Addr, buf[:])
		if err != nil {
			if errors.Is(err, e.TargetGone) {
				return match.Keep, err
			}
			return match.Drop, nil
		}
		if n == 0 {
			return match.Drop, nil
		}

		v, flags := match.Observe(buf[:n])
		if !m.MatchNarrow(ent, v, flags, n) {
			return match.Drop, nil
		}

		ent.Val, ent.Flags = v, flags
		return match.Keep, nil
	})

	list.Compact()
	if err != nil {
		return err
	}

	log.Infof("narrow %s: %d -> %d candidates", m.Op, before, list.Size())
	return nil
}
