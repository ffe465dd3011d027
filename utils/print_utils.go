package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"winnow/pkg/proc"
)

// Stdout returns the writer for human output and whether it is a
// terminal capable of color.
func Stdout() (io.Writer, bool) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return colorable.NewColorableStdout(), true
	}
	return colorable.NewNonColorable(os.Stdout), false
}

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// PrintRegions renders one region per line, bolding pathnames when the
// writer is a terminal.
func PrintRegions(w io.Writer, color bool, regions []proc.Region) {
	for _, r := range regions {
		if color && r.Pathname != "" {
			fmt.Fprintf(w, "%3d %012x-%012x %s %8d %s%s%s\n",
				r.ID, r.Start, r.End, r.Perms(), r.Size(),
				ansiBold, r.Pathname, ansiReset)
			continue
		}
		fmt.Fprintln(w, r.String())
	}
}

// Hexdump writes data 16 bytes per line with the target address in the
// left column and the printable ASCII reading on the right.
func Hexdump(w io.Writer, base uint64, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		fmt.Fprintf(w, "%012x  ", base+uint64(off))
		for i := 0; i < 16; i++ {
			if i == 8 {
				fmt.Fprint(w, " ")
			}
			if i < len(line) {
				fmt.Fprintf(w, "%02x ", line[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}

		fmt.Fprint(w, " |")
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
