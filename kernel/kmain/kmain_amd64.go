package kmain

import (
	"github.com/ababo/arwen/kernel/cpu"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem/rawmem"
	"github.com/ababo/arwen/kernel/memmap"
)

const com1 = 0x3F8

// portWriteByteFn is mocked by tests.
var portWriteByteFn = cpu.PortWriteByte

// serialPort is an io.Writer over a 16550 UART that firmware has already
// configured.
type serialPort uint16

func (p serialPort) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == '\n' {
			portWriteByteFn(uint16(p), '\r')
		}
		portWriteByteFn(uint16(p), b)
	}
	return len(data), nil
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. The rt0 code passes the magic value and information
// block address left by the Multiboot bootloader together with the physical
// boundaries of the loaded kernel image.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootMagic uint32, multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	kfmt.SetOutputSink(serialPort(com1))
	memmap.SetKernelImage(uint64(kernelStart), uint64(kernelEnd))

	if err := bootMultiboot(rawmem.Identity{}, multibootMagic, uint64(multibootInfoPtr)); err != nil {
		kfmt.Panic(err)
	}
	reportMemory()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	kfmt.Panic(errKmainReturned)
}
