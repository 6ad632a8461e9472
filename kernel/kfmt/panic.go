package kfmt

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/cpu"
)

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic logs the supplied error (if not nil) at fatal level and halts the
// CPU. Calls to Panic never return on real hardware.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	if err != nil {
		Logf(LevelFatal, "[%s] unrecoverable error: %s", err.Module, err.Message)
	}
	Logf(LevelFatal, "*** kernel panic: system halted ***")

	cpuHaltFn()
}
