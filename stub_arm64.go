package main

import "github.com/ababo/arwen/kernel/kmain"

var dtbPtr, kernelStart, kernelEnd uintptr

// main makes a dummy call to the actual kernel main entrypoint function so
// that the Go compiler keeps the kernel code. See stub_amd64.go.
func main() {
	kmain.Kmain(dtbPtr, kernelStart, kernelEnd)
}
