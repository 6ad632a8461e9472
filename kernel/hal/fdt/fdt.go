// Package fdt parses the flattened device tree blob that firmware hands to
// the kernel on arm64.
//
// The parser never copies or allocates: tokens, names and property values
// are views into the blob, which stays mapped for the lifetime of the kernel.
package fdt

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/mem/rawmem"
)

// HeaderMagic is the value of the first header word of every device tree blob.
const HeaderMagic uint32 = 0xD00DFEED

// headerSize is the size of the version 17 header in bytes.
const headerSize = 40

var (
	errBadMagic           = &kernel.Error{Module: "fdt", Message: "bad device tree magic"}
	errBadToken           = &kernel.Error{Module: "fdt", Message: "unknown device tree token"}
	errTruncated          = &kernel.Error{Module: "fdt", Message: "device tree structure ended inside a node"}
	errAlreadyInitialized = &kernel.Error{Module: "fdt", Message: "device tree already initialized"}
	errNotInitialized     = &kernel.Error{Module: "fdt", Message: "device tree accessed before initialization"}

	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	activeTree  Tree
	initialized bool
)

// Header mirrors the big-endian header at the start of the blob. All offsets
// are relative to the header address.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffDtStruct     uint32
	OffDtStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeDtStrings   uint32
	SizeDtStruct    uint32
}

// Tree is a validated view over a device tree blob.
type Tree struct {
	header Header
	blob   rawmem.View
}

// Parse maps the blob located at physical address addr and validates its
// magic number. The rest of the blob is trusted as is.
func Parse(m rawmem.Mapper, addr uint64) (Tree, *kernel.Error) {
	hdrView := m.Map(addr, headerSize)
	if hdrView.Len() < headerSize || hdrView.Uint32BE(0) != HeaderMagic {
		return Tree{}, errBadMagic
	}

	var hdr Header
	for i, field := range []*uint32{
		&hdr.Magic, &hdr.TotalSize, &hdr.OffDtStruct, &hdr.OffDtStrings, &hdr.OffMemRsvmap,
		&hdr.Version, &hdr.LastCompVersion, &hdr.BootCPUIDPhys, &hdr.SizeDtStrings, &hdr.SizeDtStruct,
	} {
		*field = hdrView.Uint32BE(uint64(i) * 4)
	}

	return Tree{
		header: hdr,
		blob:   m.Map(addr, uint64(hdr.TotalSize)),
	}, nil
}

// Init parses the blob at addr and publishes it as the device tree used by
// the rest of the kernel. Init may only succeed once.
func Init(m rawmem.Mapper, addr uint64) (*Tree, *kernel.Error) {
	if initialized {
		return nil, errAlreadyInitialized
	}

	tree, err := Parse(m, addr)
	if err != nil {
		return nil, err
	}

	activeTree, initialized = tree, true
	kfmt.Debugf("[fdt] device tree v%d at 0x%x, %d bytes", activeTree.header.Version, addr, activeTree.header.TotalSize)
	return &activeTree, nil
}

// Active returns the device tree published by Init. Calling Active before
// Init is a programming error that halts the kernel.
func Active() *Tree {
	if !initialized {
		panicFn(errNotInitialized)
		return nil
	}
	return &activeTree
}

// Header returns a copy of the blob header.
func (t *Tree) Header() Header {
	return t.header
}

// Region returns the physical memory occupied by the blob itself.
func (t *Tree) Region() mem.Region {
	return mem.Region{Address: t.blob.Base(), Size: uint64(t.header.TotalSize)}
}

// Tokens returns a fresh token cursor positioned at the start of the
// structure block.
func (t *Tree) Tokens() Iter {
	return Iter{
		blob:    t.blob,
		strings: uint64(t.header.OffDtStrings),
		offset:  uint64(t.header.OffDtStruct),
	}
}

// Query returns a PathIter that yields every location matching path. See
// NewPathIter for the path syntax.
func (t *Tree) Query(path string, ignoreAddress bool) PathIter {
	return NewPathIter(t.Tokens(), path, ignoreAddress)
}

// Reservations returns an iterator over the memory reservation block.
func (t *Tree) Reservations() ReservationIter {
	return ReservationIter{blob: t.blob, offset: uint64(t.header.OffMemRsvmap)}
}
