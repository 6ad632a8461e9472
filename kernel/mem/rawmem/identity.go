package rawmem

import "unsafe"

// sliceHeader mirrors the runtime representation of a slice.
type sliceHeader struct {
	data unsafe.Pointer
	len  int
	cap  int
}

// Identity maps physical memory that is identity-mapped into the kernel's
// address space, which is the case for everything the bootloader hands over
// before paging is reconfigured.
type Identity struct{}

// Map implements Mapper. The slice is overlaid directly on top of the
// address range so that address 0, a valid physical address, can be mapped
// as well.
func (Identity) Map(addr, size uint64) View {
	hdr := sliceHeader{
		data: unsafe.Pointer(uintptr(addr)),
		len:  int(size),
		cap:  int(size),
	}
	return View{base: addr, data: *(*[]byte)(unsafe.Pointer(&hdr))}
}
