package fdt

import (
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/mem/rawmem"
)

const reservationEntrySize = 16

// Cells holds the number of 32-bit cells used to encode addresses and sizes
// in the reg properties of a node's children.
type Cells struct {
	Address uint32
	Size    uint32
}

// DefaultCells describes 64-bit address and size pairs.
var DefaultCells = Cells{Address: 2, Size: 2}

// RootCells returns the cell layout declared by the root node. Values that
// are missing or unsupported (anything other than 1 or 2 cells) fall back to
// DefaultCells.
func (t *Tree) RootCells() Cells {
	cells := DefaultCells
	tokens := t.Tokens()

	// The root node is the first BeginNode; its properties precede its
	// first child.
	depth := 0
	for {
		tok, ok := tokens.Next()
		if !ok {
			return cells
		}

		switch tok.Kind {
		case TokenBeginNode:
			if depth++; depth > 1 {
				return cells
			}
		case TokenEndNode:
			return cells
		case TokenProperty:
			if len(tok.Value) != 4 {
				continue
			}
			v := rawmem.NewView(0, tok.Value).Uint32BE(0)
			if v != 1 && v != 2 {
				continue
			}
			switch string(tok.Name) {
			case "#address-cells":
				cells.Address = v
			case "#size-cells":
				cells.Size = v
			}
		}
	}
}

// BootArgs returns the value of /chosen/bootargs without its NUL terminator.
func (t *Tree) BootArgs() ([]byte, bool) {
	query := t.Query("/chosen/bootargs", false)
	pos, ok := query.Next()
	if !ok {
		return nil, false
	}

	tok, _ := pos.Next()
	value := tok.Value
	if n := len(value); n > 0 && value[n-1] == 0 {
		value = value[:n-1]
	}
	return value, true
}

// RegIter decodes the (address, size) pairs of a reg property value.
type RegIter struct {
	value rawmem.View
	cells Cells
	off   uint64
}

// NewRegIter returns an iterator over the pairs encoded in value.
func NewRegIter(value []byte, cells Cells) RegIter {
	return RegIter{value: rawmem.NewView(0, value), cells: cells}
}

// Next returns the next region. A trailing partial pair is ignored.
func (it *RegIter) Next() (mem.Region, bool) {
	stride := uint64(it.cells.Address+it.cells.Size) * 4
	if stride == 0 || it.off+stride > it.value.Len() {
		return mem.Region{}, false
	}

	var region mem.Region
	region.Address = it.readCells(it.off, it.cells.Address)
	region.Size = it.readCells(it.off+uint64(it.cells.Address)*4, it.cells.Size)
	it.off += stride
	return region, true
}

func (it *RegIter) readCells(off uint64, count uint32) uint64 {
	if count == 1 {
		return uint64(it.value.Uint32BE(off))
	}
	return it.value.Uint64BE(off)
}

// ReservationIter walks the memory reservation block.
type ReservationIter struct {
	blob   rawmem.View
	offset uint64
	done   bool
}

// Next returns the next reserved region. The block ends at the first entry
// whose address and size are both zero.
func (it *ReservationIter) Next() (mem.Region, bool) {
	if it.done || it.offset+reservationEntrySize > it.blob.Len() {
		return mem.Region{}, false
	}

	region := mem.Region{
		Address: it.blob.Uint64BE(it.offset),
		Size:    it.blob.Uint64BE(it.offset + 8),
	}
	if region.Address == 0 && region.Size == 0 {
		it.done = true
		return mem.Region{}, false
	}

	it.offset += reservationEntrySize
	return region, true
}
