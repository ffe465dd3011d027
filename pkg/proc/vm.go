package proc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ReadMemory copies target memory into buf with process_vm_readv,
// which needs no attach and leaves the target running.
func ReadMemory(pid int, buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	localIov := []unix.Iovec{
		{Base: &buf[0], Len: uint64(len(buf))},
	}
	remoteIov := []unix.RemoteIovec{
		{Base: uintptr(addr), Len: len(buf)},
	}

	n, err := unix.ProcessVMReadv(pid, localIov, remoteIov, 0)
	if err != nil {
		return n, fmt.Errorf("read pid %d at %#x: %w", pid, addr, wrapAccessError(err))
	}
	return n, nil
}

// WriteMemory copies data into target memory with process_vm_writev.
func WriteMemory(pid int, addr uint64, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	localIov := []unix.Iovec{
		{Base: &data[0], Len: uint64(len(data))},
	}
	remoteIov := []unix.RemoteIovec{
		{Base: uintptr(addr), Len: len(data)},
	}

	n, err := unix.ProcessVMWritev(pid, localIov, remoteIov, 0)
	if err != nil {
		return n, fmt.Errorf("write pid %d at %#x: %w", pid, addr, wrapAccessError(err))
	}
	return n, nil
}
