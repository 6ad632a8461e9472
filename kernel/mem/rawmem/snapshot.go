package rawmem

// Snapshot maps physical addresses onto Data, a copy of physical memory that
// starts at address Base. It is used by host tools that inspect descriptor
// dumps and by tests.
type Snapshot struct {
	Base uint64
	Data []byte
}

// Map implements Mapper. Requests that fall partially outside the snapshot
// are clipped; requests that fall entirely outside it yield an empty view.
func (s Snapshot) Map(addr, size uint64) View {
	if addr < s.Base || addr-s.Base > uint64(len(s.Data)) {
		return View{base: addr}
	}

	offset := addr - s.Base
	if avail := uint64(len(s.Data)) - offset; size > avail {
		size = avail
	}

	return View{base: addr, data: s.Data[offset : offset+size]}
}
