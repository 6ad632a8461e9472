// Package memmap holds the validated map of physical memory that is safe for
// the kernel to use. The map is published once during boot and is read-only
// afterwards.
package memmap

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/sync"
	"github.com/samber/lo"
)

var (
	errOverlap            = &kernel.Error{Module: "memmap", Message: "memory regions are unsorted or overlap"}
	errAlreadyInitialized = &kernel.Error{Module: "memmap", Message: "memory map already initialized"}
	errNotInitialized     = &kernel.Error{Module: "memmap", Message: "memory map accessed before initialization"}

	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	// initLock is claimed by the first Init call and never released
	// once a map has been published.
	initLock  sync.Spinlock
	published bool
	available Map
)

// Map is a validated list of regions, sorted by address, none of which
// overlap.
type Map struct {
	buf Buffer
}

// Len returns the number of regions in the map.
func (m *Map) Len() int {
	return m.buf.Len()
}

// At returns the i-th region.
func (m *Map) At(i int) mem.Region {
	return m.buf.Slice()[i]
}

// Visit invokes visitor for each region in address order until visitor
// returns false.
func (m *Map) Visit(visitor func(mem.Region) bool) {
	for _, r := range m.buf.Slice() {
		if !visitor(r) {
			return
		}
	}
}

// TotalSize returns the combined size of all regions.
func (m *Map) TotalSize() mem.Size {
	return mem.Size(lo.SumBy(m.buf.Slice(), func(r mem.Region) uint64 {
		return r.Size
	}))
}

// Validate checks that each region starts at or after the end of the region
// that precedes it.
func Validate(regions []mem.Region) *kernel.Error {
	for i := 1; i < len(regions); i++ {
		if prev := regions[i-1]; regions[i].Address < prev.Address+prev.Size {
			return errOverlap
		}
	}
	return nil
}

// Build validates regions and copies them into a new Map.
func Build(regions []mem.Region) (Map, *kernel.Error) {
	var m Map

	if err := Validate(regions); err != nil {
		return m, err
	}
	for _, r := range regions {
		if err := m.buf.Append(r); err != nil {
			return Map{}, err
		}
	}
	return m, nil
}

// Init validates regions and publishes them as the memory map of the
// running kernel. Only the first successful call has any effect; later
// calls fail with errAlreadyInitialized.
func Init(regions []mem.Region) *kernel.Error {
	if !initLock.TryToAcquire() {
		return errAlreadyInitialized
	}

	m, err := Build(regions)
	if err != nil {
		initLock.Release()
		return err
	}

	available, published = m, true
	for _, r := range available.buf.Slice() {
		kfmt.Debugf("[memmap] available memory: %dKiB from 0x%x", r.Size/uint64(mem.Kb), r.Address)
	}
	return nil
}

// Available returns the memory map published by Init. Calling Available
// before Init halts the kernel.
func Available() *Map {
	if !published {
		panicFn(errNotInitialized)
		return nil
	}
	return &available
}
