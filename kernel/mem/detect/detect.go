// Package detect turns the memory description reported by the boot
// descriptor into the list of regions that the kernel may use.
//
// Occupied memory (the kernel image, the descriptor blob and firmware
// reservations) is only carved out when it starts exactly at the beginning
// of a reported region. Occupied ranges that sit in the middle or at the end
// of a region are not subtracted.
package detect

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/hal/fdt"
	"github.com/ababo/arwen/kernel/hal/multiboot"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/ababo/arwen/kernel/memmap"
)

// FromDeviceTree appends the regions listed by the reg properties of all
// /memory nodes of tree to out, in the order they appear in the blob.
func FromDeviceTree(tree *fdt.Tree, kernelImage mem.Region, out *memmap.Buffer) *kernel.Error {
	var occupied memmap.Buffer
	if err := occupied.Append(kernelImage); err != nil {
		return err
	}
	if err := occupied.Append(tree.Region()); err != nil {
		return err
	}
	rsv := tree.Reservations()
	for {
		r, ok := rsv.Next()
		if !ok {
			break
		}
		if err := occupied.Append(r); err != nil {
			return err
		}
	}

	cells := tree.RootCells()
	query := tree.Query("/memory/reg", true)
	for {
		pos, ok := query.Next()
		if !ok {
			break
		}

		tok, _ := pos.Next()
		regs := fdt.NewRegIter(tok.Value, cells)
		for {
			r, ok := regs.Next()
			if !ok {
				break
			}
			if err := appendTrimmed(out, r, occupied.Slice()); err != nil {
				return err
			}
		}
	}

	return query.Err()
}

// FromMultiboot appends the available entries of the memory map described
// by info to out, in the order the bootloader reported them.
func FromMultiboot(info *multiboot.Info, kernelImage mem.Region, out *memmap.Buffer) *kernel.Error {
	occupied := []mem.Region{kernelImage}

	entries := info.MemoryMap()
	for {
		entry, ok := entries.Next()
		if !ok {
			return nil
		}

		kfmt.Debugf("[detect] [0x%16x - 0x%16x] %s", entry.PhysAddress, entry.PhysAddress+entry.Length, entry.Type.String())
		if entry.Type != multiboot.MemAvailable {
			continue
		}

		r := mem.Region{Address: entry.PhysAddress, Size: entry.Length}
		if err := appendTrimmed(out, r, occupied); err != nil {
			return err
		}
	}
}

func appendTrimmed(out *memmap.Buffer, r mem.Region, occupied []mem.Region) *kernel.Error {
	if r = trimOccupied(r, occupied); r.Empty() {
		return nil
	}

	for _, o := range occupied {
		if o.Overlaps(r) {
			kfmt.Warnf("[detect] [0x%16x - 0x%16x] overlaps occupied [0x%16x - 0x%16x], not trimmed", r.Address, r.End(), o.Address, o.End())
		}
	}
	return out.Append(r)
}

// trimOccupied advances the start of r past every occupied footprint that
// begins exactly at its current start. Footprints placed back to back are
// consumed together.
func trimOccupied(r mem.Region, occupied []mem.Region) mem.Region {
	for trimmed := true; trimmed && !r.Empty(); {
		trimmed = false
		for _, o := range occupied {
			if o.Empty() || o.Address != r.Address {
				continue
			}

			if o.Size >= r.Size {
				return mem.Region{Address: r.End()}
			}
			r.Address += o.Size
			r.Size -= o.Size
			trimmed = true
		}
	}
	return r
}
