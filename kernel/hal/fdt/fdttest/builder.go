// Package fdttest assembles synthetic device tree blobs for tests.
package fdttest

import (
	"encoding/binary"

	"github.com/ababo/arwen/kernel/mem"
)

const (
	tokenBeginNode uint32 = 1
	tokenEndNode   uint32 = 2
	tokenProperty  uint32 = 3
	tokenNop       uint32 = 4
	tokenEnd       uint32 = 9

	headerSize = 40
	version    = 17
	compatible = 16
)

// Builder accumulates structure block tokens. The zero value is ready to use.
type Builder struct {
	structure    []byte
	strings      []byte
	stringOffs   map[string]uint32
	reservations []mem.Region
}

// BeginNode opens a node. The root node has an empty name.
func (b *Builder) BeginNode(name string) *Builder {
	b.u32(tokenBeginNode)
	b.structure = append(b.structure, name...)
	b.structure = append(b.structure, 0)
	b.pad()
	return b
}

// EndNode closes the most recently opened node.
func (b *Builder) EndNode() *Builder {
	b.u32(tokenEndNode)
	return b
}

// Property appends a property with a raw value.
func (b *Builder) Property(name string, value []byte) *Builder {
	b.u32(tokenProperty)
	b.u32(uint32(len(value)))
	b.u32(b.stringOffset(name))
	b.structure = append(b.structure, value...)
	b.pad()
	return b
}

// PropertyString appends a property holding a NUL-terminated string.
func (b *Builder) PropertyString(name, value string) *Builder {
	return b.Property(name, append([]byte(value), 0))
}

// PropertyU32 appends a property holding big-endian 32-bit cells.
func (b *Builder) PropertyU32(name string, cells ...uint32) *Builder {
	return b.Property(name, U32(cells...))
}

// Nop appends a NOP token.
func (b *Builder) Nop() *Builder {
	b.u32(tokenNop)
	return b
}

// RawToken appends an arbitrary token tag.
func (b *Builder) RawToken(tag uint32) *Builder {
	b.u32(tag)
	return b
}

// Reserve adds an entry to the memory reservation block.
func (b *Builder) Reserve(address, size uint64) *Builder {
	b.reservations = append(b.reservations, mem.Region{Address: address, Size: size})
	return b
}

// Build returns the complete blob: header, reservation block, structure
// block terminated by an END token, then the strings block.
func (b *Builder) Build() []byte {
	rsvOff := uint32(headerSize)
	structOff := rsvOff + uint32(len(b.reservations)+1)*16
	structSize := uint32(len(b.structure)) + 4
	stringsOff := structOff + structSize
	totalSize := stringsOff + uint32(len(b.strings))

	blob := make([]byte, 0, totalSize)
	for _, v := range []uint32{
		0xD00DFEED, totalSize, structOff, stringsOff, rsvOff,
		version, compatible, 0, uint32(len(b.strings)), structSize,
	} {
		blob = binary.BigEndian.AppendUint32(blob, v)
	}
	for _, r := range b.reservations {
		blob = binary.BigEndian.AppendUint64(blob, r.Address)
		blob = binary.BigEndian.AppendUint64(blob, r.Size)
	}
	blob = append(blob, make([]byte, 16)...)
	blob = append(blob, b.structure...)
	blob = binary.BigEndian.AppendUint32(blob, tokenEnd)
	return append(blob, b.strings...)
}

func (b *Builder) stringOffset(name string) uint32 {
	if off, ok := b.stringOffs[name]; ok {
		return off
	}
	if b.stringOffs == nil {
		b.stringOffs = map[string]uint32{}
	}

	off := uint32(len(b.strings))
	b.strings = append(b.strings, name...)
	b.strings = append(b.strings, 0)
	b.stringOffs[name] = off
	return off
}

func (b *Builder) u32(v uint32) {
	b.structure = binary.BigEndian.AppendUint32(b.structure, v)
}

func (b *Builder) pad() {
	for len(b.structure)%4 != 0 {
		b.structure = append(b.structure, 0)
	}
}

// U32 encodes cells as big-endian 32-bit words.
func U32(cells ...uint32) []byte {
	var out []byte
	for _, c := range cells {
		out = binary.BigEndian.AppendUint32(out, c)
	}
	return out
}

// Reg encodes (address, size) pairs as big-endian 64-bit words, the layout
// used by reg properties when #address-cells and #size-cells are 2.
func Reg(pairs ...uint64) []byte {
	var out []byte
	for _, p := range pairs {
		out = binary.BigEndian.AppendUint64(out, p)
	}
	return out
}
