package memmap

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/config"
	"github.com/ababo/arwen/kernel/mem"
)

var errCapacityExceeded = &kernel.Error{Module: "memmap", Message: "too many memory regions"}

// Buffer is a fixed-capacity list of regions. It is used both to collect the
// regions reported by the firmware and as the backing storage of a Map. The
// zero value is an empty buffer.
type Buffer struct {
	regions [config.MemoryRegionsMax]mem.Region
	count   int
}

// Append adds r to the end of the buffer. It fails with errCapacityExceeded
// once the buffer holds config.MemoryRegionsMax regions.
func (b *Buffer) Append(r mem.Region) *kernel.Error {
	if b.count == len(b.regions) {
		return errCapacityExceeded
	}

	b.regions[b.count] = r
	b.count++
	return nil
}

// Slice returns the stored regions. The slice aliases the buffer.
func (b *Buffer) Slice() []mem.Region {
	return b.regions[:b.count]
}

// Len returns the number of stored regions.
func (b *Buffer) Len() int {
	return b.count
}
