package main

import (
	"debug/elf"

	"github.com/pkg/errors"

	"github.com/ababo/arwen/kernel/mem"
)

// kernelImageRegion returns the physical span covered by the loadable
// segments of a kernel ELF file.
func kernelImageRegion(path string) (mem.Region, error) {
	f, err := elf.Open(path)
	if err != nil {
		return mem.Region{}, errors.Wrapf(err, "opening kernel image %s", path)
	}
	defer f.Close()

	var start, end uint64
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		if end == 0 || prog.Paddr < start {
			start = prog.Paddr
		}
		if prog.Paddr+prog.Memsz > end {
			end = prog.Paddr + prog.Memsz
		}
	}

	if end == 0 {
		return mem.Region{}, errors.Errorf("%s: no loadable segments", path)
	}
	return mem.Region{Address: start, Size: end - start}, nil
}
