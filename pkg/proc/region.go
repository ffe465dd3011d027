package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	e "winnow/error"
)

// CowKind is the copy-on-write column of a maps line.
type CowKind int

const (
	CowUnknown CowKind = iota
	CowPrivate
	CowShared
)

func (k CowKind) String() string {
	switch k {
	case CowPrivate:
		return "p"
	case CowShared:
		return "s"
	}
	return "-"
}

// Region is one mapped range of the target, parsed from a single maps
// line. Regions are immutable once their set is built.
type Region struct {
	ID       int
	Start    uint64
	End      uint64
	Read     bool
	Write    bool
	Exec     bool
	Cow      CowKind
	Offset   uint64
	Dev      string
	Inode    uint64
	Pathname string
}

func (r Region) Size() uint64 { return r.End - r.Start }

func (r Region) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

func (r Region) Perms() string {
	perms := []byte{'-', '-', '-', '-'}
	if r.Read {
		perms[0] = 'r'
	}
	if r.Write {
		perms[1] = 'w'
	}
	if r.Exec {
		perms[2] = 'x'
	}
	perms[3] = r.Cow.String()[0]
	return string(perms)
}

// MapLine renders the region back in the maps file format.
func (r Region) MapLine() string {
	line := fmt.Sprintf("%x-%x %s %08x %s %d",
		r.Start, r.End, r.Perms(), r.Offset, r.Dev, r.Inode)
	if r.Pathname != "" {
		line += " " + r.Pathname
	}
	return line
}

func (r Region) String() string {
	return fmt.Sprintf("%3d %012x-%012x %s %8d %s",
		r.ID, r.Start, r.End, r.Perms(), r.Size(), r.Pathname)
}

// RegionSet is the parse result for one pass over the target's maps.
// It is append-only during the parse and read-only afterwards; Reset
// replaces it wholesale.
type RegionSet struct {
	regions []Region
}

func (s *RegionSet) Len() int { return len(s.regions) }

func (s *RegionSet) Regions() []Region { return s.regions }

func (s *RegionSet) FindID(id int) (Region, error) {
	for _, r := range s.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("region id %d: %w", id, e.RegionNotFound)
}

func (s *RegionSet) FindAddress(addr uint64) (Region, error) {
	for _, r := range s.regions {
		if r.Contains(addr) {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("address %#x: %w", addr, e.RegionNotFound)
}

// ParseRegions reads /proc/<pid>/maps. Only regions that are both
// readable and writable are retained; ids are assigned 1-based in file
// order over the retained regions.
func ParseRegions(pid int) (*RegionSet, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, wrapAccessError(err)
	}
	return parseMapsData(data)
}

func parseMapsData(data []byte) (*RegionSet, error) {
	set := &RegionSet{}

	id := 1
	for lineno, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}

		r, err := parseMapLine(line)
		if err != nil {
			return nil, fmt.Errorf("maps line %d: %w", lineno+1, err)
		}
		if !r.Read || !r.Write {
			continue
		}

		r.ID = id
		set.regions = append(set.regions, r)
		id++
	}

	return set, nil
}

// parseMapLine decodes `start-end perms offset major:minor inode
// [pathname]`. The pathname may be empty or contain spaces up to the
// end of the line.
func parseMapLine(line string) (Region, error) {
	malformed := func() (Region, error) {
		return Region{}, fmt.Errorf("%q: %w", line, e.MalformedMapLine)
	}

	fields := strings.SplitN(line, " ", 6)
	if len(fields) < 5 {
		return malformed()
	}

	startStr, endStr, ok := strings.Cut(fields[0], "-")
	if !ok {
		return malformed()
	}
	start, err := strconv.ParseUint(startStr, 16, 64)
	if err != nil {
		return malformed()
	}
	end, err := strconv.ParseUint(endStr, 16, 64)
	if err != nil || start >= end {
		return malformed()
	}

	r := Region{Start: start, End: end}

	perms := fields[1]
	if len(perms) != 4 {
		return malformed()
	}
	switch perms[0] {
	case 'r':
		r.Read = true
	case '-':
	default:
		return malformed()
	}
	switch perms[1] {
	case 'w':
		r.Write = true
	case '-':
	default:
		return malformed()
	}
	switch perms[2] {
	case 'x':
		r.Exec = true
	case '-':
	default:
		return malformed()
	}
	switch perms[3] {
	case 'p':
		r.Cow = CowPrivate
	case 's':
		r.Cow = CowShared
	case '-':
		r.Cow = CowUnknown
	default:
		return malformed()
	}

	r.Offset, err = strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return malformed()
	}

	major, minor, ok := strings.Cut(fields[3], ":")
	if !ok {
		return malformed()
	}
	if _, err := strconv.ParseUint(major, 16, 64); err != nil {
		return malformed()
	}
	if _, err := strconv.ParseUint(minor, 16, 64); err != nil {
		return malformed()
	}
	r.Dev = fields[3]

	r.Inode, err = strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return malformed()
	}

	if len(fields) == 6 {
		r.Pathname = strings.TrimSpace(fields[5])
	}

	return r, nil
}

// FilterKind selects the predicate a region filter applies to
// pathnames.
type FilterKind int

const (
	FilterPathname FilterKind = iota
	FilterBasename
	FilterRegex
)

func ParseFilterKind(s string) (FilterKind, error) {
	switch s {
	case "pathname", "path":
		return FilterPathname, nil
	case "basename", "base":
		return FilterBasename, nil
	case "regex", "re":
		return FilterRegex, nil
	}
	return 0, fmt.Errorf("unknown filter kind %q", s)
}

// FilterView borrows regions from its set; it must not outlive it.
type FilterView struct {
	set *RegionSet
	idx []int
}

// Compiled filter expressions come back around a lot during a session,
// so they sit in a small shared cache.
var regexCache, _ = lru.New(16)

func compileFilter(expr string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Get(expr); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	regexCache.Add(expr, re)
	return re, nil
}

// Filter builds a view over the regions whose pathname satisfies the
// predicate, or fails to satisfy it when invert is set. An empty
// selection is an error and produces no view.
func (s *RegionSet) Filter(kind FilterKind, arg string, invert bool) (*FilterView, error) {
	var pred func(r Region) bool

	switch kind {
	case FilterPathname:
		pred = func(r Region) bool { return r.Pathname == arg }
	case FilterBasename:
		pred = func(r Region) bool { return filepath.Base(r.Pathname) == arg }
	case FilterRegex:
		re, err := compileFilter(arg)
		if err != nil {
			return nil, err
		}
		pred = func(r Region) bool { return re.MatchString(r.Pathname) }
	default:
		return nil, fmt.Errorf("unknown filter kind %d", kind)
	}

	v := &FilterView{set: s}
	for i, r := range s.regions {
		if pred(r) != invert {
			v.idx = append(v.idx, i)
		}
	}

	if len(v.idx) == 0 {
		return nil, e.EmptyFilter
	}
	return v, nil
}

func (v *FilterView) Len() int { return len(v.idx) }

func (v *FilterView) Each(fn func(r Region) bool) {
	for _, i := range v.idx {
		if !fn(v.set.regions[i]) {
			return
		}
	}
}

// Regions materializes the view in set order.
func (v *FilterView) Regions() []Region {
	out := make([]Region, 0, len(v.idx))
	for _, i := range v.idx {
		out = append(out, v.set.regions[i])
	}
	return out
}
