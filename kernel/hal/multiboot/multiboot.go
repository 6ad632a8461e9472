// Package multiboot decodes the Multiboot (version 1) information block that
// a compliant bootloader passes to the kernel on amd64.
package multiboot

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem/rawmem"
)

const (
	// HeaderMagic identifies the Multiboot header embedded in the kernel
	// image.
	HeaderMagic uint32 = 0x1BADB002

	// HeaderMemoryInfo asks the bootloader to provide memory information.
	HeaderMemoryInfo uint32 = 1 << 1

	// BootloaderMagic is the value a compliant bootloader leaves in EAX.
	BootloaderMagic uint32 = 0x2BADB002
)

// InfoFlag marks which fields of the information block are valid.
type InfoFlag uint32

// Information block flags.
const (
	InfoMemory         InfoFlag = 1 << 0
	InfoCmdLine        InfoFlag = 1 << 2
	InfoMemoryMap      InfoFlag = 1 << 6
	InfoBootLoaderName InfoFlag = 1 << 9
)

// Field offsets within the information block.
const (
	offFlags          = 0
	offMemLower       = 4
	offMemUpper       = 8
	offCmdLine        = 16
	offMmapLength     = 44
	offMmapAddr       = 48
	offBootLoaderName = 64

	infoSize = 88

	// maxStringLen bounds the mapping used for NUL-terminated strings
	// referenced by the information block.
	maxStringLen = 4096
)

var (
	errBadMagic           = &kernel.Error{Module: "multiboot", Message: "bad bootloader magic"}
	errNoMemoryMap        = &kernel.Error{Module: "multiboot", Message: "bootloader did not provide a memory map"}
	errAlreadyInitialized = &kernel.Error{Module: "multiboot", Message: "multiboot info already initialized"}
	errNotInitialized     = &kernel.Error{Module: "multiboot", Message: "multiboot info accessed before initialization"}

	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	activeInfo  Info
	initialized bool
)

// Header is the Multiboot header that must appear within the first 8 KiB of
// the kernel image.
type Header struct {
	Magic    uint32
	Flags    uint32
	Checksum uint32
}

// NewHeader returns a header advertising flags with a matching checksum.
func NewHeader(flags uint32) Header {
	return Header{
		Magic:    HeaderMagic,
		Flags:    flags,
		Checksum: -(HeaderMagic + flags),
	}
}

// Valid returns true if the magic number is correct and all three fields sum
// to zero.
func (h Header) Valid() bool {
	return h.Magic == HeaderMagic && h.Magic+h.Flags+h.Checksum == 0
}

// Info is a validated view over the information block.
type Info struct {
	m    rawmem.Mapper
	data rawmem.View
}

// Parse validates the magic value handed over by the bootloader and the
// information block at infoAddr. The block must describe a memory map.
func Parse(m rawmem.Mapper, magic uint32, infoAddr uint64) (Info, *kernel.Error) {
	if magic != BootloaderMagic {
		return Info{}, errBadMagic
	}

	info := Info{m: m, data: m.Map(infoAddr, infoSize)}
	if !info.Has(InfoMemoryMap) {
		return Info{}, errNoMemoryMap
	}
	return info, nil
}

// Init parses the information block and publishes it for the rest of the
// boot sequence. Init may only succeed once.
func Init(m rawmem.Mapper, magic uint32, infoAddr uint64) (*Info, *kernel.Error) {
	if initialized {
		return nil, errAlreadyInitialized
	}

	info, err := Parse(m, magic, infoAddr)
	if err != nil {
		return nil, err
	}

	activeInfo, initialized = info, true
	kfmt.Debugf("[multiboot] info block at 0x%x, flags 0x%x", infoAddr, uint32(activeInfo.Flags()))
	return &activeInfo, nil
}

// Active returns the information block published by Init. Calling Active
// before Init halts the kernel.
func Active() *Info {
	if !initialized {
		panicFn(errNotInitialized)
		return nil
	}
	return &activeInfo
}

// Address returns the physical address of the information block.
func (i *Info) Address() uint64 {
	return i.data.Base()
}

// Flags returns the flags word of the information block.
func (i *Info) Flags() InfoFlag {
	return InfoFlag(i.data.Uint32LE(offFlags))
}

// Has returns true if all bits in flag are set.
func (i *Info) Has(flag InfoFlag) bool {
	return i.Flags()&flag == flag
}

// MemoryMap returns an iterator over the bootloader-provided memory map.
func (i *Info) MemoryMap() MemoryMapIter {
	addr := uint64(i.data.Uint32LE(offMmapAddr))
	length := uint64(i.data.Uint32LE(offMmapLength))
	return MemoryMapIter{data: i.m.Map(addr, length)}
}

// BasicMemory returns the amount of lower and upper memory in KiB. Lower
// memory starts at address 0 and upper memory at 1 MiB.
func (i *Info) BasicMemory() (lower, upper uint32, ok bool) {
	if !i.Has(InfoMemory) {
		return 0, 0, false
	}
	return i.data.Uint32LE(offMemLower), i.data.Uint32LE(offMemUpper), true
}

// CmdLine returns the kernel command line.
func (i *Info) CmdLine() ([]byte, bool) {
	return i.cString(InfoCmdLine, offCmdLine)
}

// BootLoaderName returns the name reported by the bootloader.
func (i *Info) BootLoaderName() ([]byte, bool) {
	return i.cString(InfoBootLoaderName, offBootLoaderName)
}

func (i *Info) cString(flag InfoFlag, off uint64) ([]byte, bool) {
	if !i.Has(flag) {
		return nil, false
	}
	return i.m.Map(uint64(i.data.Uint32LE(off)), maxStringLen).CString(0), true
}

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the boot loader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// VisitMemRegions invokes the supplied visitor for each memory region
// defined by the information block published by Init.
func VisitMemRegions(visitor MemRegionVisitor) {
	it := Active().MemoryMap()
	for {
		entry, ok := it.Next()
		if !ok || !visitor(&entry) {
			return
		}
	}
}
