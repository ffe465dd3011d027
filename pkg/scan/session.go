package scan

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"winnow/pkg/logflags"
	"winnow/pkg/match"
	"winnow/pkg/proc"
)

// Session owns one target process across the whole scan-and-narrow
// cycle: the current region set, the active filter view, and the match
// store. At most one pass runs at a time.
type Session struct {
	mu   sync.Mutex
	pid  int
	set  *proc.RegionSet
	view *proc.FilterView
	list *match.List
	log  logflags.Logger
}

func NewSession(pid int, log logflags.Logger) (*Session, error) {
	set, err := proc.ParseRegions(pid)
	if err != nil {
		return nil, err
	}
	return &Session{pid: pid, set: set, list: match.NewList(), log: log}, nil
}

func (s *Session) Pid() int { return s.pid }

// Reset reparses the target's maps and replaces the region set. The
// match store survives so a replayed scan appends to it; the filter
// view is dropped because its indices belong to the old set.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := proc.ParseRegions(s.pid)
	if err != nil {
		return err
	}
	s.set = set
	s.view = nil
	return nil
}

// Filter replaces the active view. On error the previous view stays.
func (s *Session) Filter(kind proc.FilterKind, arg string, invert bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.set.Filter(kind, arg, invert)
	if err != nil {
		return 0, err
	}
	s.view = view
	return view.Len(), nil
}

func (s *Session) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = nil
}

// regions is the active selection: the filter view when one is set,
// the whole region set otherwise. Callers hold s.mu.
func (s *Session) regions() []proc.Region {
	if s.view != nil {
		return s.view.Regions()
	}
	return s.set.Regions()
}

func (s *Session) Regions() []proc.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regions()
}

func (s *Session) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Size()
}

func buildMatcher(op, v1, v2, rf string) (*match.Matcher, error) {
	o, err := match.ParseOp(op)
	if err != nil {
		return nil, err
	}

	var lo, hi *match.Needle
	switch o.NeedleCount() {
	case 1:
		if lo, err = match.ParseNeedle(v1); err != nil {
			return nil, err
		}
	case 2:
		if lo, err = match.ParseNeedle(v1); err != nil {
			return nil, err
		}
		if hi, err = match.ParseNeedle(v2); err != nil {
			return nil, err
		}
	}

	flag, err := match.ParseRangeFlag(rf)
	if err != nil {
		return nil, err
	}

	return match.NewMatcher(o, lo, hi, flag)
}

// newWindowProvider picks the pseudo-file reader when the target's mem
// file is accessible and falls back to an attached word peeker. The
// provider's Close releases whichever resource was taken.
func (s *Session) newWindowProvider(unaligned bool) (windowProvider, error) {
	if proc.CanReadMem(s.pid) {
		mem, err := proc.OpenMem(s.pid)
		if err == nil {
			return newFileWindows(mem, mem, unaligned), nil
		}
	}

	target, err := proc.Attach(s.pid)
	if err != nil {
		return nil, err
	}
	return newPeekWindows(target, detachCloser{target}, unaligned), nil
}

func (s *Session) newCandidateReader() (candidateReader, error) {
	if proc.CanReadMem(s.pid) {
		mem, err := proc.OpenMem(s.pid)
		if err == nil {
			return &fileCandidates{r: mem, closer: mem}, nil
		}
	}

	target, err := proc.Attach(s.pid)
	if err != nil {
		return nil, err
	}
	return &peekCandidates{p: target, detach: detachCloser{target}}, nil
}

type detachCloser struct {
	t *proc.Target
}

func (d detachCloser) Close() error { return d.t.Detach() }

// Scan runs a populate pass over the active region selection. When the
// store already holds candidates the new matches are appended.
func (s *Session) Scan(ctx context.Context, op, v1, v2, rf string, unaligned bool) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := buildMatcher(op, v1, v2, rf)
	if err != nil {
		return 0, err
	}
	if m.Op.Stateful() {
		return 0, fmt.Errorf("%s compares against stored candidates; scan has none", m.Op)
	}

	prov, err := s.newWindowProvider(unaligned)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := prov.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := scanPass(ctx, prov, s.regions(), m, s.list, s.log); err != nil {
		return s.list.Size(), err
	}
	return s.list.Size(), nil
}

// Narrow re-evaluates the store against a fresh read of every
// candidate.
func (s *Session) Narrow(ctx context.Context, op, v1, v2, rf string) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := buildMatcher(op, v1, v2, rf)
	if err != nil {
		return 0, err
	}

	cand, err := s.newCandidateReader()
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := cand.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := narrowPass(ctx, cand, m, s.list, s.log); err != nil {
		return s.list.Size(), err
	}
	return s.list.Size(), nil
}

// ClearMatches drops the whole store, making the next scan a fresh
// populate pass.
func (s *Session) ClearMatches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Clear()
}

// MatchInfo is one rendered candidate.
type MatchInfo struct {
	ID       int
	Addr     uint64
	RegionID int
	Value    string
}

// Matches snapshots up to limit candidates in list order. limit <= 0
// means all of them.
func (s *Session) Matches(limit int) []MatchInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []MatchInfo
	s.list.Each(func(id int, ent match.Entry) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}

		info := MatchInfo{ID: id, Addr: ent.Addr, Value: renderValue(ent)}
		if r, err := s.set.FindAddress(ent.Addr); err == nil {
			info.RegionID = r.ID
		}
		out = append(out, info)
		return true
	})
	return out
}

// MatchAddr resolves a 1-based render id back to its address.
func (s *Session) MatchAddr(id int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var addr uint64
	found := false
	s.list.Each(func(i int, ent match.Entry) bool {
		if i == id {
			addr, found = ent.Addr, true
			return false
		}
		return true
	})
	if !found {
		return 0, fmt.Errorf("no match with id %d", id)
	}
	return addr, nil
}

// renderValue prints the snapshot in its most plausible reading:
// float-only candidates as doubles, everything else as the decimal of
// the full 64-bit value, signed when its top bit is set and unsigned
// otherwise.
func renderValue(ent match.Entry) string {
	if ent.Flags&match.FlagsInt == 0 && ent.Flags&match.FlagF64 != 0 {
		return strconv.FormatFloat(ent.Val.F64(), 'g', -1, 64)
	}
	if ent.Val.I64() < 0 {
		return strconv.FormatInt(ent.Val.I64(), 10)
	}
	return strconv.FormatUint(ent.Val.Bits, 10)
}

// Peek copies length bytes out of the target without attaching.
func (s *Session) Peek(addr uint64, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, length)
	n, err := proc.ReadMemory(s.pid, buf, addr)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

// Poke writes the needle's significant bytes at addr.
func (s *Session) Poke(addr uint64, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nd, err := match.ParseNeedle(value)
	if err != nil {
		return err
	}

	data := make([]byte, nd.ByteLen)
	for i := range data {
		data[i] = byte(nd.Val.Bits >> (8 * uint(i)))
	}

	n, err := proc.WriteMemory(s.pid, addr, data)
	if err != nil {
		return err
	}
	if n < len(data) {
		return fmt.Errorf("wrote %d of %d bytes at %#x: %w", n, len(data), addr, io.ErrShortWrite)
	}
	return nil
}
