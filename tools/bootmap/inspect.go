package main

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/hal/fdt"
	"github.com/ababo/arwen/kernel/hal/multiboot"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/mem/detect"
	"github.com/ababo/arwen/kernel/mem/rawmem"
	"github.com/ababo/arwen/kernel/memmap"
)

// kernelMu serializes calls into the kernel packages. Their diagnostics go
// through the process-wide kfmt sink.
var kernelMu sync.Mutex

// report is the outcome of inspecting one descriptor file.
type report struct {
	Path        string
	Format      string
	Fingerprint uint64
	Descriptor  mem.Region
	Kernel      mem.Region
	Map         memmap.Map
	Err         error
}

func detectFormat(data []byte) string {
	if len(data) >= 4 && binary.BigEndian.Uint32(data) == fdt.HeaderMagic {
		return formatFDT
	}
	return formatMultiboot
}

// inspect runs the boot-time memory discovery over data, a copy of physical
// memory starting at cfg.LoadAddr. Malformed descriptors may make the
// parsers read outside data; the resulting panic is reported as an error.
func inspect(sink *logSink, log *zap.Logger, path string, data []byte, cfg config, kernelImage mem.Region) (rep report) {
	rep = report{
		Path:        path,
		Format:      cfg.Format,
		Fingerprint: xxhash.Sum64(data),
		Kernel:      kernelImage,
	}
	if rep.Format == formatAuto {
		rep.Format = detectFormat(data)
	}

	kernelMu.Lock()
	defer kernelMu.Unlock()

	sink.log = log.With(zap.String("file", path))
	defer func() {
		sink.Flush()
		if r := recover(); r != nil {
			rep.Err = errors.Errorf("%s: malformed descriptor: %v", path, r)
		}
	}()

	var kerr *kernel.Error
	rep.Descriptor, rep.Map, kerr = discover(rawmem.Snapshot{Base: cfg.LoadAddr, Data: data}, rep.Format, cfg, kernelImage)
	if kerr != nil {
		rep.Err = errors.Wrapf(kerr, "inspecting %s", path)
	}
	return rep
}

func discover(snapshot rawmem.Snapshot, format string, cfg config, kernelImage mem.Region) (mem.Region, memmap.Map, *kernel.Error) {
	var (
		regions    memmap.Buffer
		descriptor mem.Region
	)

	switch format {
	case formatFDT:
		tree, err := fdt.Parse(snapshot, cfg.LoadAddr)
		if err != nil {
			return mem.Region{}, memmap.Map{}, err
		}
		descriptor = tree.Region()
		if err = detect.FromDeviceTree(&tree, kernelImage, &regions); err != nil {
			return descriptor, memmap.Map{}, err
		}
	default:
		info, err := multiboot.Parse(snapshot, cfg.Magic, cfg.InfoAddr)
		if err != nil {
			return mem.Region{}, memmap.Map{}, err
		}
		descriptor = mem.Region{Address: snapshot.Base, Size: uint64(len(snapshot.Data))}
		if err = detect.FromMultiboot(&info, kernelImage, &regions); err != nil {
			return descriptor, memmap.Map{}, err
		}
	}

	m, err := memmap.Build(regions.Slice())
	return descriptor, m, err
}
