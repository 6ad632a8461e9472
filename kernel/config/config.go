// Package config holds the compile-time configuration of the kernel.
package config

const (
	// MemoryRegionsMax bounds every fixed-size buffer that holds memory
	// regions: the regions reported by the boot descriptor, the occupied
	// footprints subtracted from them and the published memory map.
	MemoryRegionsMax = 32

	// DefaultLogLevel is the kfmt log level used until the boot command
	// line selects another one (0 = debug ... 4 = fatal).
	DefaultLogLevel = 1
)
