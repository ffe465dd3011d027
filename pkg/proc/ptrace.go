package proc

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
	e "winnow/error"
)

// Target is a process held under ptrace attach. While attached the
// target is stopped, so word peeks observe a consistent snapshot.
type Target struct {
	Pid int
}

// Attach stops the target and waits for the attach-stop. The caller
// must Detach when done or the target stays frozen.
func Attach(pid int) (*Target, error) {
	// Ptrace requests must come from the thread that attached.
	runtime.LockOSThread()

	if err := unix.PtraceAttach(pid); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("attach pid %d: %w", pid, wrapAccessError(err))
	}

	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil {
		unix.PtraceDetach(pid)
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("attach pid %d: %w", pid, wrapAccessError(err))
	}

	return &Target{Pid: pid}, nil
}

func (t *Target) Detach() error {
	defer runtime.UnlockOSThread()
	if err := unix.PtraceDetach(t.Pid); err != nil {
		return fmt.Errorf("detach pid %d: %w", t.Pid, wrapAccessError(err))
	}
	return nil
}

// PeekWord reads one machine word at addr, returned as the
// little-endian integer PTRACE_PEEKDATA yields.
func (t *Target) PeekWord(addr uint64) (uint64, error) {
	var word [8]byte
	n, err := unix.PtracePeekData(t.Pid, uintptr(addr), word[:])
	if err != nil {
		return 0, fmt.Errorf("peek %#x: %w", addr, wrapAccessError(err))
	}
	if n < len(word) {
		return 0, fmt.Errorf("peek %#x: %d bytes: %w", addr, n, e.ShortRead)
	}
	return binary.LittleEndian.Uint64(word[:]), nil
}
