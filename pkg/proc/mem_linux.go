package proc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	e "winnow/error"
)

func memPath(pid int) string {
	return fmt.Sprintf("/proc/%d/mem", pid)
}

// CanReadMem reports whether /proc/<pid>/mem is readable without
// attaching. When it is, the file path is much faster than peeking one
// word at a time.
func CanReadMem(pid int) bool {
	return unix.Access(memPath(pid), unix.R_OK) == nil
}

// MemFile reads and writes target memory through /proc/<pid>/mem.
// Offsets into the file are the target's virtual addresses.
type MemFile struct {
	f   *os.File
	pid int
}

func OpenMem(pid int) (*MemFile, error) {
	f, err := os.OpenFile(memPath(pid), os.O_RDWR, 0)
	if err != nil {
		f, err = os.Open(memPath(pid))
	}
	if err != nil {
		return nil, wrapAccessError(err)
	}
	return &MemFile{f: f, pid: pid}, nil
}

func (m *MemFile) ReadMemory(buf []byte, addr uint64) (int, error) {
	n, err := m.f.ReadAt(buf, int64(addr))
	if err != nil && err != io.EOF {
		return n, wrapMemError(m.pid, err)
	}
	return n, nil
}

func (m *MemFile) WriteMemory(addr uint64, data []byte) (int, error) {
	n, err := m.f.WriteAt(data, int64(addr))
	if err != nil {
		return n, wrapMemError(m.pid, err)
	}
	return n, nil
}

func (m *MemFile) Close() error { return m.f.Close() }

// wrapAccessError maps errno from the /proc entry points onto the
// package sentinels so callers can errors.Is their way to a verdict.
func wrapAccessError(err error) error {
	switch {
	case errors.Is(err, unix.ESRCH), errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%v: %w", err, e.TargetGone)
	case errors.Is(err, unix.EPERM), errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%v: %w", err, e.PermissionDenied)
	}
	return err
}

// wrapMemError is wrapAccessError plus the EIO that /proc/<pid>/mem
// returns for addresses the target no longer maps.
func wrapMemError(pid int, err error) error {
	if errors.Is(err, unix.EIO) {
		if unix.Kill(pid, 0) == unix.ESRCH {
			return fmt.Errorf("pid %d: %w", pid, e.TargetGone)
		}
		return err
	}
	return wrapAccessError(err)
}
