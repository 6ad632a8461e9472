package memmap

import "github.com/ababo/arwen/kernel/mem"

var kernelStart, kernelEnd uint64

// SetKernelImage records the physical boundaries of the loaded kernel image
// as reported by the rt0 entry code.
func SetKernelImage(start, end uint64) {
	kernelStart, kernelEnd = start, end
}

// KernelRegion returns the physical memory occupied by the kernel image.
func KernelRegion() mem.Region {
	if kernelEnd < kernelStart {
		return mem.Region{Address: kernelStart}
	}
	return mem.Region{Address: kernelStart, Size: kernelEnd - kernelStart}
}
