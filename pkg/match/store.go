package match

// Entry is one candidate address together with the snapshot and flags
// recorded when it last satisfied a predicate.
type Entry struct {
	Addr  uint64
	Val   Value
	Flags Flags
}

// Chunk capacities. New chunks always take the largest tier; the
// smaller ones give compaction somewhere to shrink trailing waste.
var chunkTiers = [...]int{50, 100, 200, 400, 800}

const defaultTier = 800

type chunk struct {
	entries []Entry
}

func newChunk(capacity int) *chunk {
	return &chunk{entries: make([]Entry, 0, capacity)}
}

func (c *chunk) used() int { return len(c.entries) }
func (c *chunk) free() int { return cap(c.entries) - len(c.entries) }

// deleteAt swaps the last entry into slot i and shrinks. O(1), order
// not preserved.
func (c *chunk) deleteAt(i int) {
	last := len(c.entries) - 1
	c.entries[i] = c.entries[last]
	c.entries = c.entries[:last]
}

// List holds candidates in insertion order across chunks. Within a
// chunk the order is unspecified once anything has been deleted.
type List struct {
	chunks []*chunk
	size   int
}

func NewList() *List { return &List{} }

func (l *List) Size() int { return l.size }

func (l *List) Push(ent Entry) {
	if len(l.chunks) == 0 || l.chunks[len(l.chunks)-1].free() == 0 {
		l.chunks = append(l.chunks, newChunk(defaultTier))
	}
	c := l.chunks[len(l.chunks)-1]
	c.entries = append(c.entries, ent)
	l.size++
}

// Clear drops every candidate and chunk.
func (l *List) Clear() {
	l.chunks = nil
	l.size = 0
}

// Action is a visitor's verdict on one entry.
type Action int

const (
	Keep Action = iota
	Drop
)

// Iterate visits every entry, removing those the callback drops via
// swap-with-last. A non-nil error stops the walk; entries already
// visited keep whatever fate the callback assigned them. Chunks that
// empty out are unlinked either way.
func (l *List) Iterate(fn func(ent *Entry) (Action, error)) error {
	for _, c := range l.chunks {
		i := 0
		for i < len(c.entries) {
			act, err := fn(&c.entries[i])
			if err != nil {
				l.unlinkEmpty()
				return err
			}
			if act == Drop {
				c.deleteAt(i)
				l.size--
				continue
			}
			i++
		}
	}
	l.unlinkEmpty()
	return nil
}

func (l *List) unlinkEmpty() {
	kept := l.chunks[:0]
	for _, c := range l.chunks {
		if c.used() > 0 {
			kept = append(kept, c)
		}
	}
	l.chunks = kept
}

// Each visits entries in list order with their 1-based render ids.
// Returning false stops the walk.
func (l *List) Each(fn func(id int, ent Entry) bool) {
	id := 1
	for _, c := range l.chunks {
		for _, ent := range c.entries {
			if !fn(id, ent) {
				return
			}
			id++
		}
	}
}

// Compact merges partially filled chunks. Entries move from the tail
// of the smaller-capacity chunk into the larger one; when the
// destination fills first the remainder stays put and the drained side
// carries on as the next destination candidate. The one surviving
// partial chunk is then reallocated down to the smallest tier that
// still holds it.
func (l *List) Compact() {
	for {
		a, b := l.twoPartials()
		if b < 0 {
			if a >= 0 {
				l.shrink(a)
			}
			return
		}

		dst, src := a, b
		if cap(l.chunks[src].entries) > cap(l.chunks[dst].entries) {
			dst, src = src, dst
		}

		l.moveTail(dst, src)

		if l.chunks[src].used() == 0 {
			l.chunks = append(l.chunks[:src], l.chunks[src+1:]...)
		}
	}
}

// twoPartials returns the indexes of the first two chunks with free
// slots; the second is -1 when fewer than two exist.
func (l *List) twoPartials() (int, int) {
	first := -1
	for i, c := range l.chunks {
		if c.free() == 0 {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		return first, i
	}
	return first, -1
}

func (l *List) moveTail(dst, src int) {
	d, s := l.chunks[dst], l.chunks[src]

	n := d.free()
	if n > s.used() {
		n = s.used()
	}

	tail := s.entries[len(s.entries)-n:]
	d.entries = append(d.entries, tail...)
	s.entries = s.entries[:len(s.entries)-n]
}

func (l *List) shrink(i int) {
	c := l.chunks[i]
	tier := tierFor(c.used())
	if tier >= cap(c.entries) {
		return
	}

	entries := make([]Entry, c.used(), tier)
	copy(entries, c.entries)
	c.entries = entries
}

func tierFor(n int) int {
	for _, t := range chunkTiers {
		if t >= n {
			return t
		}
	}
	return chunkTiers[len(chunkTiers)-1]
}
