package mem

// Region describes a contiguous [Address, Address+Size) span of physical
// memory. Regions are plain values; two regions with the same address and
// size are interchangeable.
type Region struct {
	// The physical address where the region begins.
	Address uint64

	// The region length in bytes.
	Size uint64
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Address + r.Size
}

// Empty returns true if the region spans no bytes.
func (r Region) Empty() bool {
	return r.Size == 0
}

// Overlaps returns true if the two regions share at least one byte.
func (r Region) Overlaps(other Region) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.Address < other.End() && other.Address < r.End()
}
