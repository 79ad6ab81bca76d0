package mem

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Allocator errors.
var (
	ErrNoSpace     = errors.New("mem: not enough contiguous space")
	ErrBadFree     = errors.New("mem: free of unallocated block")
	ErrUnknownZone = errors.New("mem: domain has no region")
)

// DefaultAlignment is the alignment of every block handed out.
const DefaultAlignment = 4

type span struct {
	start, size uint32
}

func (s span) end() uint32 { return s.start + s.size }

type heap struct {
	free      []span
	allocated map[uint32]uint32
}

// An Allocator hands out domain-tagged addresses with a first-fit policy.
// Freed blocks are merged with their free neighbours.
type Allocator struct {
	mu        sync.Mutex
	alignment uint32
	heaps     map[Domain]*heap
}

// NewAllocator creates an allocator over the regions of m.
func NewAllocator(m *AddressMap) *Allocator {
	a := &Allocator{
		alignment: DefaultAlignment,
		heaps:     make(map[Domain]*heap),
	}

	for _, r := range m.regions {
		a.heaps[r.Domain] = &heap{
			free:      []span{{start: r.Base, size: r.Size}},
			allocated: make(map[uint32]uint32),
		}
	}

	return a
}

func (a *Allocator) roundUp(size uint32) uint32 {
	return (size + a.alignment - 1) / a.alignment * a.alignment
}

// Alloc reserves size bytes in domain d and returns their address.
func (a *Allocator) Alloc(d Domain, size uint32) (uint32, error) {
	if size == 0 {
		return 0, fmt.Errorf("mem: zero-sized allocation in %s", d)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.heaps[d]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownZone, d)
	}

	size = a.roundUp(size)
	for i, s := range h.free {
		if s.size < size {
			continue
		}

		addr := s.start
		if s.size == size {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{start: s.start + size, size: s.size - size}
		}

		h.allocated[addr] = size

		return addr, nil
	}

	return 0, fmt.Errorf("%w: %d bytes in %s", ErrNoSpace, size, d)
}

// Free releases a block obtained from Alloc. size must be the size that was
// requested.
func (a *Allocator) Free(d Domain, addr, size uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.heaps[d]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownZone, d)
	}

	size = a.roundUp(size)
	if got, ok := h.allocated[addr]; !ok || got != size {
		return fmt.Errorf("%w: %s 0x%08x (%d bytes)", ErrBadFree, d, addr, size)
	}

	delete(h.allocated, addr)
	h.insertFree(span{start: addr, size: size})

	return nil
}

func (h *heap) insertFree(s span) {
	i := sort.Search(len(h.free), func(i int) bool {
		return h.free[i].start > s.start
	})

	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end() == h.free[i+1].start {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}

	if i > 0 && h.free[i-1].end() == h.free[i].start {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

// FreeBytes returns the number of unallocated bytes of domain d.
func (a *Allocator) FreeBytes(d Domain) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := uint32(0)
	if h, ok := a.heaps[d]; ok {
		for _, s := range h.free {
			total += s.size
		}
	}

	return total
}
