package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/outofforest/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ababo/arwen/kernel/hal/fdt/fdttest"
	"github.com/ababo/arwen/kernel/hal/multiboot"
	"github.com/ababo/arwen/kernel/hal/multiboot/multiboottest"
	"github.com/ababo/arwen/kernel/mem"
)

func deviceTree() []byte {
	b := &fdttest.Builder{}
	b.BeginNode("").
		BeginNode("memory@40000000").
		Property("reg", fdttest.Reg(0x40000000, 0x100000, 0x80000000, 0x100000)).
		EndNode().
		EndNode()
	return b.Build()
}

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"--load-addr", "0x48000000", "--kernel-base=0x40000000", "--kernel-size", "8192", "a.dtb", "b.bin"})
	require.NoError(t, err)
	require.Equal(t, formatAuto, cfg.Format)
	require.Equal(t, uint64(0x48000000), cfg.LoadAddr)
	require.Equal(t, uint64(0x48000000), cfg.InfoAddr)
	require.Equal(t, multiboot.BootloaderMagic, cfg.Magic)
	require.Equal(t, uint64(0x40000000), cfg.KernelBase)
	require.Equal(t, uint64(0x2000), cfg.KernelSize)
	require.Equal(t, []string{"a.dtb", "b.bin"}, cfg.Files)

	cfg, err = parseFlags([]string{"--format", "multiboot", "--load-addr", "0x9000", "--info-addr", "0x9100", "mem.bin"})
	require.NoError(t, err)
	require.Equal(t, uint64(0x9100), cfg.InfoAddr)

	_, err = parseFlags([]string{"--format", "acpi", "x"})
	require.Error(t, err)

	_, err = parseFlags(nil)
	require.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	require.Equal(t, formatFDT, detectFormat(deviceTree()))
	require.Equal(t, formatMultiboot, detectFormat([]byte{0x02, 0xB0, 0xAD, 0x2B}))
	require.Equal(t, formatMultiboot, detectFormat(nil))
}

func TestInspectDeviceTree(t *testing.T) {
	data := deviceTree()
	cfg := config{Format: formatAuto, LoadAddr: 0x48000000}

	rep := inspect(&logSink{}, zap.NewNop(), "virt.dtb", data, cfg, mem.Region{Address: 0x40000000, Size: 0x20000})
	require.NoError(t, rep.Err)
	require.Equal(t, formatFDT, rep.Format)
	require.Equal(t, mem.Region{Address: 0x48000000, Size: uint64(len(data))}, rep.Descriptor)
	require.Equal(t, 2, rep.Map.Len())
	require.Equal(t, mem.Region{Address: 0x40020000, Size: 0xE0000}, rep.Map.At(0))
	require.Equal(t, mem.Region{Address: 0x80000000, Size: 0x100000}, rep.Map.At(1))
}

func TestInspectMultiboot(t *testing.T) {
	b := multiboottest.Builder{
		Base:  0x9000,
		Flags: uint32(multiboot.InfoMemoryMap),
		Entries: []multiboottest.Entry{
			{Addr: 0, Length: 0x9FC00, Type: 1},
			{Addr: 0x100000, Length: 0x7EE0000, Type: 1},
		},
	}
	snapshot := b.Build()
	cfg := config{Format: formatMultiboot, LoadAddr: 0x9000, InfoAddr: b.InfoAddr(), Magic: multiboot.BootloaderMagic}

	rep := inspect(&logSink{}, zap.NewNop(), "mem.bin", snapshot.Data, cfg, mem.Region{})
	require.NoError(t, rep.Err)
	require.Equal(t, 2, rep.Map.Len())
	require.Equal(t, mem.Size(0x9FC00+0x7EE0000), rep.Map.TotalSize())

	cfg.Magic = 0
	rep = inspect(&logSink{}, zap.NewNop(), "mem.bin", snapshot.Data, cfg, mem.Region{})
	require.ErrorContains(t, rep.Err, "bad bootloader magic")
}

func TestInspectMalformed(t *testing.T) {
	data := deviceTree()
	cfg := config{Format: formatFDT}

	// Cut the blob in the middle of the structure block.
	rep := inspect(&logSink{}, zap.NewNop(), "cut.dtb", data[:60], cfg, mem.Region{})
	require.ErrorContains(t, rep.Err, "malformed descriptor")

	rep = inspect(&logSink{}, zap.NewNop(), "garbage.dtb", []byte("not a device tree blob at all, sorry"), cfg, mem.Region{})
	require.ErrorContains(t, rep.Err, "bad device tree magic")
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := &logSink{log: zap.New(core)}

	_, err := sink.Write([]byte("d [memmap] available memory: 4KiB from 0x0\nE [fdt] unknown tok"))
	require.NoError(t, err)
	_, err = sink.Write([]byte("en 0x77\nF *** kernel panic ***\nplain"))
	require.NoError(t, err)
	sink.Flush()

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "[memmap] available memory: 4KiB from 0x0", entries[0].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	require.Equal(t, "[fdt] unknown token 0x77", entries[1].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, zapcore.InfoLevel, entries[3].Level)
	require.Equal(t, "plain", entries[3].Message)
	require.Equal(t, "kernel", entries[3].ContextMap()["source"])
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "virt.dtb")
	bad := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(good, deviceTree(), 0o600))
	require.NoError(t, os.WriteFile(bad, nil, 0o600))

	ctx := logger.WithLogger(context.Background(), zap.NewNop())

	var out bytes.Buffer
	cfg := config{Format: formatAuto, LoadAddr: 0x48000000, LogLevel: "debug", Files: []string{good}}
	require.NoError(t, run(ctx, cfg, &out))
	require.Contains(t, out.String(), good+": fdt, fingerprint ")
	require.Contains(t, out.String(), "  available  0x0000000040000000 - 0x0000000040100000       1024 KiB\n")
	require.Contains(t, out.String(), "  total 2048 KiB in 2 regions\n")

	out.Reset()
	cfg.Files = []string{good, bad, filepath.Join(dir, "missing")}
	err := run(ctx, cfg, &out)
	require.ErrorContains(t, err, "2 of 3 files could not be inspected")
	require.Contains(t, out.String(), bad+": error: ")

	cfg.LogLevel = "loud"
	require.Error(t, run(ctx, cfg, &out))
}

func TestKernelImageRegion(t *testing.T) {
	_, err := kernelImageRegion(filepath.Join(t.TempDir(), "missing.elf"))
	require.Error(t, err)

	notELF := filepath.Join(t.TempDir(), "kernel.bin")
	require.NoError(t, os.WriteFile(notELF, []byte("plain binary"), 0o600))
	_, err = kernelImageRegion(notELF)
	require.ErrorContains(t, err, "opening kernel image")

	ctx := logger.WithLogger(context.Background(), zap.NewNop())
	cfg := config{Format: formatAuto, LogLevel: "info", KernelImage: notELF, Files: []string{notELF}}
	require.Error(t, run(ctx, cfg, &bytes.Buffer{}))
}
