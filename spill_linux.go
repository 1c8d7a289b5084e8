//go:build linux

package workq

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the spill file is streamed in order.
// Hints are best effort; errors are ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// adviseDontNeed drops cached pages of a rewound spill file.
func adviseDontNeed(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}
