package memmap

import (
	"bytes"
	"io"
	"testing"

	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/config"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem"
	"github.com/stretchr/testify/require"
)

func resetStore() {
	initLock.Release()
	available, published = Map{}, false
	panicFn = kfmt.Panic
}

func TestBuffer(t *testing.T) {
	var b Buffer
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Slice())

	for i := 0; i < config.MemoryRegionsMax; i++ {
		require.Nil(t, b.Append(mem.Region{Address: uint64(i) << 20, Size: 0x1000}))
	}
	require.Equal(t, errCapacityExceeded, b.Append(mem.Region{Address: 0xFFFF0000, Size: 1}))
	require.Equal(t, config.MemoryRegionsMax, b.Len())
	require.Len(t, b.Slice(), config.MemoryRegionsMax)
	require.Equal(t, mem.Region{Address: 1 << 20, Size: 0x1000}, b.Slice()[1])
}

func TestValidate(t *testing.T) {
	specs := []struct {
		name    string
		regions []mem.Region
		expErr  *kernel.Error
	}{
		{"empty", nil, nil},
		{"single", []mem.Region{{Address: 0x1000, Size: 0x1000}}, nil},
		{"overlapping", []mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x500, Size: 0x1000}}, errOverlap},
		{"adjacent", []mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x1000, Size: 0x2000}}, nil},
		{"gap", []mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x100000, Size: 0x2000}}, nil},
		{"unsorted", []mem.Region{{Address: 0x100000, Size: 0x1000}, {Address: 0, Size: 0x1000}}, errOverlap},
		{"identical", []mem.Region{{Address: 0x2000, Size: 0x1000}, {Address: 0x2000, Size: 0x1000}}, errOverlap},
		{
			"violation past first pair",
			[]mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x1000, Size: 0x1000}, {Address: 0x1800, Size: 0x1000}},
			errOverlap,
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			require.Equal(t, spec.expErr, Validate(spec.regions))

			m, err := Build(spec.regions)
			require.Equal(t, spec.expErr, err)
			if err == nil {
				require.Equal(t, len(spec.regions), m.Len())
			}
		})
	}
}

func TestBuildCapacity(t *testing.T) {
	regions := make([]mem.Region, config.MemoryRegionsMax+1)
	for i := range regions {
		regions[i] = mem.Region{Address: uint64(i) * 0x1000, Size: 0x1000}
	}

	_, err := Build(regions)
	require.Equal(t, errCapacityExceeded, err)

	m, err := Build(regions[:config.MemoryRegionsMax])
	require.Nil(t, err)
	require.Equal(t, config.MemoryRegionsMax, m.Len())
}

func TestMapQueries(t *testing.T) {
	m, err := Build([]mem.Region{
		{Address: 0, Size: 0x9FC00},
		{Address: 0x100000, Size: 0x7EE0000},
		{Address: 0x100000000, Size: uint64(mem.Gb)},
	})
	require.Nil(t, err)

	require.Equal(t, 3, m.Len())
	require.Equal(t, mem.Region{Address: 0x100000, Size: 0x7EE0000}, m.At(1))
	require.Equal(t, mem.Size(0x9FC00+0x7EE0000)+mem.Gb, m.TotalSize())

	var visited []uint64
	m.Visit(func(r mem.Region) bool {
		visited = append(visited, r.Address)
		return r.Address < 0x100000
	})
	require.Equal(t, []uint64{0, 0x100000}, visited)

	var empty Map
	require.Equal(t, mem.Size(0), empty.TotalSize())
}

func TestInit(t *testing.T) {
	defer func(origSink io.Writer, origLevel kfmt.Level) {
		resetStore()
		kfmt.SetOutputSink(origSink)
		kfmt.SetLevel(origLevel)
	}(kfmt.GetOutputSink(), kfmt.CurrentLevel())
	resetStore()

	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)
	kfmt.SetLevel(kfmt.LevelDebug)

	require.Equal(t, errOverlap, Init([]mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x500, Size: 0x1000}}))

	regions := []mem.Region{{Address: 0, Size: 0x1000}, {Address: 0x40003000, Size: 0xD000}}
	require.Nil(t, Init(regions))
	require.Equal(t,
		"d [memmap] available memory: 4KiB from 0x0\nd [memmap] available memory: 52KiB from 0x40003000\n",
		buf.String(),
	)

	// The store keeps its own copy.
	regions[0].Size = 0x2000
	require.Equal(t, mem.Region{Address: 0, Size: 0x1000}, Available().At(0))
	require.Equal(t, 2, Available().Len())

	require.Equal(t, errAlreadyInitialized, Init(regions))
	require.Equal(t, mem.Size(0x1000+0xD000), Available().TotalSize())
}

func TestAvailableBeforeInit(t *testing.T) {
	defer resetStore()
	resetStore()

	var panicked interface{}
	panicFn = func(e interface{}) {
		panicked = e
	}

	require.Nil(t, Available())
	require.Equal(t, errNotInitialized, panicked)
}

func TestKernelRegion(t *testing.T) {
	defer SetKernelImage(0, 0)

	SetKernelImage(0x40080000, 0x40280000)
	require.Equal(t, mem.Region{Address: 0x40080000, Size: 0x200000}, KernelRegion())

	SetKernelImage(0x2000, 0x1000)
	require.True(t, KernelRegion().Empty())
}
