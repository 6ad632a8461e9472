package multiboot

import "github.com/ababo/arwen/kernel/mem/rawmem"

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// MemBad indicates defective RAM.
	MemBad

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

var memoryEntryTypeNames = [...]string{
	"available", "reserved", "ACPI (reclaimable)", "NVS", "bad",
}

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	if t == 0 || t >= memUnknown {
		t = MemReserved
	}
	return memoryEntryTypeNames[t-1]
}

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// Entry layout, relative to the start of an entry. The size field does not
// count itself.
const (
	entryOffSize    = 0
	entryOffAddr    = 4
	entryOffLength  = 12
	entryOffType    = 20
	minEntryPayload = 20
)

// MemoryMapIter walks the variable-stride memory map. Each entry starts with
// its own size, so the next entry begins 4+size bytes after the current one.
type MemoryMapIter struct {
	data   rawmem.View
	offset uint64
}

// Next returns the entry at the cursor and advances past it. Iteration
// stops at the end of the map or when fewer bytes remain than a complete
// entry needs.
func (it *MemoryMapIter) Next() (MemoryMapEntry, bool) {
	if it.offset+4+minEntryPayload > it.data.Len() {
		return MemoryMapEntry{}, false
	}

	entry := MemoryMapEntry{
		PhysAddress: it.data.Uint64LE(it.offset + entryOffAddr),
		Length:      it.data.Uint64LE(it.offset + entryOffLength),
		Type:        MemoryEntryType(it.data.Uint32LE(it.offset + entryOffType)),
	}

	// Mark unknown entry types as reserved
	if entry.Type == 0 || entry.Type >= memUnknown {
		entry.Type = MemReserved
	}

	it.offset += 4 + uint64(it.data.Uint32LE(it.offset+entryOffSize))
	return entry, true
}

// Offset returns the position of the next entry relative to mmap_addr.
func (it *MemoryMapIter) Offset() uint64 {
	return it.offset
}
