package cpu

// Halt parks the core waiting for interrupts that never get delivered.
func Halt()
