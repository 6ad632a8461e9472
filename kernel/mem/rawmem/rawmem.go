// Package rawmem provides read-only views over firmware-owned physical
// memory and the big/little-endian cursor primitives used by the boot
// descriptor parsers.
//
// Reads are not checked against any size declared by the firmware: the data
// comes from the bootloader and is trusted. A View only knows how many bytes
// were mapped for it; reading past that is a programming error.
package rawmem

import (
	"bytes"
	"encoding/binary"
)

// View is a read-only window over physical memory starting at a known
// physical address. Views are values; copying one never copies the
// underlying memory.
type View struct {
	base uint64
	data []byte
}

// NewView returns a View over data that is located at physical address base.
func NewView(base uint64, data []byte) View {
	return View{base: base, data: data}
}

// Base returns the physical address of the first byte in the view.
func (v View) Base() uint64 {
	return v.base
}

// Len returns the number of mapped bytes.
func (v View) Len() uint64 {
	return uint64(len(v.data))
}

// Bytes returns the mapped memory. Callers must not modify it.
func (v View) Bytes() []byte {
	return v.data
}

// Sub returns a view over size bytes starting at offset.
func (v View) Sub(offset, size uint64) View {
	return View{base: v.base + offset, data: v.data[offset : offset+size]}
}

// Slice returns size bytes starting at offset.
func (v View) Slice(offset, size uint64) []byte {
	return v.data[offset : offset+size]
}

// Uint32BE reads a big-endian uint32 at offset.
func (v View) Uint32BE(offset uint64) uint32 {
	return binary.BigEndian.Uint32(v.data[offset:])
}

// Uint64BE reads a big-endian uint64 at offset.
func (v View) Uint64BE(offset uint64) uint64 {
	return binary.BigEndian.Uint64(v.data[offset:])
}

// Uint32LE reads a little-endian uint32 at offset.
func (v View) Uint32LE(offset uint64) uint32 {
	return binary.LittleEndian.Uint32(v.data[offset:])
}

// Uint64LE reads a little-endian uint64 at offset.
func (v View) Uint64LE(offset uint64) uint64 {
	return binary.LittleEndian.Uint64(v.data[offset:])
}

// CString returns the bytes of the NUL-terminated string that starts at
// offset, excluding the terminator. If no terminator is mapped, the rest of
// the view is returned.
func (v View) CString(offset uint64) []byte {
	s := v.data[offset:]
	if end := bytes.IndexByte(s, 0); end != -1 {
		return s[:end]
	}
	return s
}

// Mapper makes physical memory addressable.
type Mapper interface {
	// Map returns a view over size bytes of physical memory starting at
	// addr.
	Map(addr, size uint64) View
}
