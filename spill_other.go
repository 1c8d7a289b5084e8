//go:build !linux

package workq

import "os"

func adviseSequential(f *os.File) {}

func adviseDontNeed(f *os.File) {}
