// Package kmain drives the boot sequence that discovers usable physical
// memory before any other kernel subsystem starts.
package kmain

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/hal/cmdline"
	"github.com/ababo/arwen/kernel/hal/fdt"
	"github.com/ababo/arwen/kernel/hal/multiboot"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/mem/detect"
	"github.com/ababo/arwen/kernel/mem/rawmem"
	"github.com/ababo/arwen/kernel/memmap"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// The following functions are mocked by tests.
	fdtInitFn       = fdt.Init
	multibootInitFn = multiboot.Init
	memmapInitFn    = memmap.Init
)

// bootMultiboot publishes the memory map described by the Multiboot
// information block at infoAddr.
func bootMultiboot(m rawmem.Mapper, magic uint32, infoAddr uint64) *kernel.Error {
	info, err := multibootInitFn(m, magic, infoAddr)
	if err != nil {
		return err
	}

	if args, ok := info.CmdLine(); ok {
		applyCmdLine(args)
	}
	if name, ok := info.BootLoaderName(); ok {
		kfmt.Infof("[kmain] booted by %s", name)
	}

	var regions memmap.Buffer
	if err = detect.FromMultiboot(info, memmap.KernelRegion(), &regions); err != nil {
		return err
	}
	return memmapInitFn(regions.Slice())
}

// bootDeviceTree publishes the memory map described by the device tree blob
// at dtbAddr.
func bootDeviceTree(m rawmem.Mapper, dtbAddr uint64) *kernel.Error {
	tree, err := fdtInitFn(m, dtbAddr)
	if err != nil {
		return err
	}

	if args, ok := tree.BootArgs(); ok {
		applyCmdLine(args)
	}

	var regions memmap.Buffer
	if err = detect.FromDeviceTree(tree, memmap.KernelRegion(), &regions); err != nil {
		return err
	}
	return memmapInitFn(regions.Slice())
}

// applyCmdLine honors the loglevel= argument of the kernel command line.
func applyCmdLine(args []byte) {
	name, ok := cmdline.Lookup(args, "loglevel")
	if !ok {
		return
	}

	level, ok := kfmt.ParseLevel(name)
	if !ok {
		kfmt.Warnf("[kmain] ignoring unknown log level %s", name)
		return
	}
	kfmt.SetLevel(level)
}

// reportMemory logs a summary of the published memory map.
func reportMemory() {
	m := memmap.Available()
	kfmt.Infof("[kmain] %d regions, %dKiB available", m.Len(), uint64(m.TotalSize()/mem.Kb))
}
