package main

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/ababo/arwen/kernel/hal/multiboot"
)

const (
	formatAuto      = "auto"
	formatFDT       = "fdt"
	formatMultiboot = "multiboot"
)

var formats = []string{formatAuto, formatFDT, formatMultiboot}

// config holds the command line of a bootmap invocation.
type config struct {
	Format      string
	LoadAddr    uint64
	InfoAddr    uint64
	Magic       uint32
	KernelBase  uint64
	KernelSize  uint64
	KernelImage string
	LogLevel    string
	Files       []string
}

func parseFlags(args []string) (config, error) {
	var cfg config

	flags := pflag.NewFlagSet("bootmap", pflag.ContinueOnError)
	flags.StringVar(&cfg.Format, "format", formatAuto, "descriptor format: auto, fdt or multiboot")
	flags.Uint64Var(&cfg.LoadAddr, "load-addr", 0, "physical address of the first byte of each file")
	flags.Uint64Var(&cfg.InfoAddr, "info-addr", 0, "physical address of the multiboot information block (defaults to --load-addr)")
	flags.Uint32Var(&cfg.Magic, "magic", multiboot.BootloaderMagic, "value the bootloader left in EAX")
	flags.Uint64Var(&cfg.KernelBase, "kernel-base", 0, "physical address of the kernel image")
	flags.Uint64Var(&cfg.KernelSize, "kernel-size", 0, "size of the kernel image in bytes")
	flags.StringVar(&cfg.KernelImage, "kernel-image", "", "kernel ELF file; overrides --kernel-base and --kernel-size")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "level of kernel diagnostics: debug, info, warning, error or fatal")

	if err := flags.Parse(args); err != nil {
		return config{}, errors.WithStack(err)
	}

	cfg.Files = flags.Args()
	if len(cfg.Files) == 0 {
		return config{}, errors.New("no input files")
	}
	if !lo.Contains(formats, cfg.Format) {
		return config{}, errors.Errorf("unknown format %q", cfg.Format)
	}
	if !flags.Changed("info-addr") {
		cfg.InfoAddr = cfg.LoadAddr
	}
	return cfg, nil
}
