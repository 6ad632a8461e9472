// Package multiboottest assembles synthetic physical memory snapshots that
// contain a Multiboot information block.
package multiboottest

import (
	"encoding/binary"

	"github.com/ababo/arwen/kernel/mem/rawmem"
)

// Fixed layout of the generated snapshot, relative to Base.
const (
	InfoOffset    = 0x000
	MmapOffset    = 0x100
	CmdLineOffset = 0x800
	NameOffset    = 0xC00
	snapshotSize  = 0x1000
)

// Entry is a memory map entry. Size is the value of the leading size field;
// zero selects the standard 20 bytes; other values must be at least 20.
// Entries with Size > 20 get zero padding after the type field.
type Entry struct {
	Size   uint32
	Addr   uint64
	Length uint64
	Type   uint32
}

// Builder describes the information block to generate.
type Builder struct {
	Base           uint64
	Flags          uint32
	MemLower       uint32
	MemUpper       uint32
	Entries        []Entry
	CmdLine        string
	BootLoaderName string
}

// InfoAddr returns the physical address of the information block.
func (b Builder) InfoAddr() uint64 {
	return b.Base + InfoOffset
}

// MmapAddr returns the physical address of the memory map.
func (b Builder) MmapAddr() uint64 {
	return b.Base + MmapOffset
}

// Build returns the snapshot. The memory map length covers exactly the
// encoded entries.
func (b Builder) Build() rawmem.Snapshot {
	data := make([]byte, snapshotSize)
	le := binary.LittleEndian

	var mmap []byte
	for _, e := range b.Entries {
		size := e.Size
		if size == 0 {
			size = 20
		}
		entry := make([]byte, 4+size)
		le.PutUint32(entry[0:], size)
		le.PutUint64(entry[4:], e.Addr)
		le.PutUint64(entry[12:], e.Length)
		le.PutUint32(entry[20:], e.Type)
		mmap = append(mmap, entry...)
	}
	copy(data[MmapOffset:], mmap)

	le.PutUint32(data[InfoOffset+0:], b.Flags)
	le.PutUint32(data[InfoOffset+4:], b.MemLower)
	le.PutUint32(data[InfoOffset+8:], b.MemUpper)
	le.PutUint32(data[InfoOffset+44:], uint32(len(mmap)))
	le.PutUint32(data[InfoOffset+48:], uint32(b.MmapAddr()))

	if b.CmdLine != "" {
		copy(data[CmdLineOffset:], b.CmdLine)
		le.PutUint32(data[InfoOffset+16:], uint32(b.Base+CmdLineOffset))
	}
	if b.BootLoaderName != "" {
		copy(data[NameOffset:], b.BootLoaderName)
		le.PutUint32(data[InfoOffset+64:], uint32(b.Base+NameOffset))
	}

	return rawmem.Snapshot{Base: b.Base, Data: data}
}
