package kmain

import (
	"unsafe"

	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem/rawmem"
	"github.com/ababo/arwen/kernel/memmap"
)

// PL011 UART of the QEMU virt machine.
const (
	uartBase       = 0x09000000
	uartRegData    = 0x00
	uartRegFlag    = 0x18
	uartFlagTxFull = 1 << 5
)

type pl011 uintptr

func (u pl011) reg(off uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(u) + off))
}

func (u pl011) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == '\n' {
			u.putc('\r')
		}
		u.putc(b)
	}
	return len(data), nil
}

func (u pl011) putc(b byte) {
	for *u.reg(uartRegFlag)&uartFlagTxFull != 0 {
	}
	*u.reg(uartRegData) = uint32(b)
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. The rt0 code passes the address of the device tree
// blob supplied by the firmware together with the physical boundaries of the
// loaded kernel image.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(dtbPtr, kernelStart, kernelEnd uintptr) {
	kfmt.SetOutputSink(pl011(uartBase))
	memmap.SetKernelImage(uint64(kernelStart), uint64(kernelEnd))

	if err := bootDeviceTree(rawmem.Identity{}, uint64(dtbPtr)); err != nil {
		kfmt.Panic(err)
	}
	reportMemory()

	kfmt.Panic(errKmainReturned)
}
