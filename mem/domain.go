package mem

import (
	"fmt"
)

// Domain identifies one of the two memories the engine moves data between.
type Domain int

// Memory domains.
const (
	// Scratchpad is the small, fast memory reached over the local
	// interconnect (L1).
	Scratchpad Domain = iota

	// External is the large memory reached over the system bus (L2).
	External
)

func (d Domain) String() string {
	switch d {
	case Scratchpad:
		return "scratchpad"
	case External:
		return "external"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// Default placement of the domains in the 32-bit address space.
const (
	DefaultScratchpadBase uint32 = 0x10000000
	DefaultScratchpadSize uint32 = 256 << 10
	DefaultExternalBase   uint32 = 0x1c000000
	DefaultExternalSize   uint32 = 1 << 20
)

// A Region is a domain placed in the address space, backed by a Storage.
type Region struct {
	Domain  Domain
	Base    uint32
	Size    uint32
	Storage *Storage
}

// NewRegion creates a region with a fresh storage.
func NewRegion(d Domain, base, size uint32) *Region {
	return &Region{
		Domain:  d,
		Base:    base,
		Size:    size,
		Storage: NewStorage(uint64(size)),
	}
}

// Contains tells whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr, n uint32) bool {
	if addr < r.Base {
		return false
	}

	end := uint64(addr) + uint64(n)

	return end <= uint64(r.Base)+uint64(r.Size)
}

// Read reads n bytes at the absolute address addr.
func (r *Region) Read(addr, n uint32) ([]byte, error) {
	if !r.Contains(addr, n) {
		return nil, fmt.Errorf("%w: %s [0x%08x, +%d)",
			ErrOutOfRange, r.Domain, addr, n)
	}

	return r.Storage.Read(uint64(addr-r.Base), uint64(n))
}

// Write writes data at the absolute address addr.
func (r *Region) Write(addr uint32, data []byte) error {
	if !r.Contains(addr, uint32(len(data))) {
		return fmt.Errorf("%w: %s [0x%08x, +%d)",
			ErrOutOfRange, r.Domain, addr, len(data))
	}

	return r.Storage.Write(uint64(addr-r.Base), data)
}

// An AddressMap resolves absolute addresses to regions.
type AddressMap struct {
	regions []*Region
}

// NewAddressMap creates a map of the given regions. Regions must not overlap.
func NewAddressMap(regions ...*Region) *AddressMap {
	for i, a := range regions {
		for _, b := range regions[i+1:] {
			if a.Contains(b.Base, 1) || b.Contains(a.Base, 1) {
				panic(fmt.Sprintf("mem: regions %s and %s overlap",
					a.Domain, b.Domain))
			}
		}
	}

	return &AddressMap{regions: regions}
}

// NewDefaultAddressMap creates the scratchpad and external regions at their
// default places.
func NewDefaultAddressMap() *AddressMap {
	return NewAddressMap(
		NewRegion(Scratchpad, DefaultScratchpadBase, DefaultScratchpadSize),
		NewRegion(External, DefaultExternalBase, DefaultExternalSize),
	)
}

// Find returns the region holding [addr, addr+n).
func (m *AddressMap) Find(addr, n uint32) (*Region, bool) {
	for _, r := range m.regions {
		if r.Contains(addr, n) {
			return r, true
		}
	}

	return nil, false
}

// Region returns the region of a domain.
func (m *AddressMap) Region(d Domain) (*Region, bool) {
	for _, r := range m.regions {
		if r.Domain == d {
			return r, true
		}
	}

	return nil, false
}

// Read reads n bytes at addr from whichever region holds them.
func (m *AddressMap) Read(addr, n uint32) ([]byte, error) {
	r, ok := m.Find(addr, n)
	if !ok {
		return nil, fmt.Errorf("%w: [0x%08x, +%d) unmapped", ErrOutOfRange, addr, n)
	}

	return r.Read(addr, n)
}

// Write writes data at addr into whichever region holds it.
func (m *AddressMap) Write(addr uint32, data []byte) error {
	r, ok := m.Find(addr, uint32(len(data)))
	if !ok {
		return fmt.Errorf("%w: [0x%08x, +%d) unmapped",
			ErrOutOfRange, addr, len(data))
	}

	return r.Write(addr, data)
}
