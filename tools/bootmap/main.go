// Command bootmap runs the kernel's boot-time memory discovery over device
// tree blobs and Multiboot memory snapshots and prints the resulting memory
// maps.
//
// Usage:
//
//	bootmap [flags] FILE...
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
)

func main() {
	log := logger.New(logger.DefaultConfig)
	ctx := logger.WithLogger(context.Background(), log)

	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(ctx, cfg, os.Stdout)
	}
	if err != nil {
		log.Error("bootmap failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, out io.Writer) error {
	log := logger.Get(ctx)

	level, ok := kfmt.ParseLevel([]byte(cfg.LogLevel))
	if !ok {
		return errors.Errorf("unknown log level %q", cfg.LogLevel)
	}

	kernelImage := mem.Region{Address: cfg.KernelBase, Size: cfg.KernelSize}
	if cfg.KernelImage != "" {
		var err error
		if kernelImage, err = kernelImageRegion(cfg.KernelImage); err != nil {
			return err
		}
	}

	sink := &logSink{log: log}
	kfmt.SetLevel(level)
	kfmt.SetOutputSink(sink)
	defer kfmt.SetOutputSink(nil)

	reports := make([]report, len(cfg.Files))
	err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		for i, path := range cfg.Files {
			i, path := i, path
			spawn(fmt.Sprintf("file-%02d", i), parallel.Continue, func(ctx context.Context) error {
				data, unmap, err := mapFile(path)
				if err != nil {
					reports[i] = report{Path: path, Err: err}
					return nil
				}
				defer unmap()

				reports[i] = inspect(sink, log, path, data, cfg, kernelImage)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, rep := range reports {
		if err := printReport(out, rep); err != nil {
			return errors.WithStack(err)
		}
	}

	if failed := lo.CountBy(reports, func(rep report) bool { return rep.Err != nil }); failed > 0 {
		return errors.Errorf("%d of %d files could not be inspected", failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, rep report) error {
	if rep.Err != nil {
		_, err := fmt.Fprintf(w, "%s: error: %v\n", rep.Path, rep.Err)
		return err
	}

	lines := []string{
		fmt.Sprintf("%s: %s, fingerprint %016x", rep.Path, rep.Format, rep.Fingerprint),
		fmt.Sprintf("  descriptor 0x%016x - 0x%016x", rep.Descriptor.Address, rep.Descriptor.End()),
		fmt.Sprintf("  kernel     0x%016x - 0x%016x", rep.Kernel.Address, rep.Kernel.End()),
	}
	rep.Map.Visit(func(r mem.Region) bool {
		lines = append(lines, fmt.Sprintf("  available  0x%016x - 0x%016x %10d KiB", r.Address, r.End(), r.Size/uint64(mem.Kb)))
		return true
	})
	lines = append(lines, fmt.Sprintf("  total %d KiB in %d regions", uint64(rep.Map.TotalSize()/mem.Kb), rep.Map.Len()))

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
