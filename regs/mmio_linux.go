//go:build linux

package regs

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MMIO is a Bus over a memory-mapped physical window, typically /dev/mem.
type MMIO struct {
	base uint64
	mem  []byte
}

// MapMMIO maps size bytes of path starting at physical address base.
func MapMMIO(path string, base uint64, size int) (*MMIO, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("regs: open %s: %w", path, err)
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), int64(base), size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("regs: mmap %s at 0x%x: %w", path, base, err)
	}

	return &MMIO{base: base, mem: mem}, nil
}

// Close unmaps the window.
func (m *MMIO) Close() error {
	if m.mem == nil {
		return nil
	}

	err := unix.Munmap(m.mem)
	m.mem = nil

	return err
}

func (m *MMIO) word(addr uint64) *uint32 {
	if addr < m.base || addr+4 > m.base+uint64(len(m.mem)) || addr%4 != 0 {
		panic(fmt.Sprintf("regs: access 0x%x outside mapped window", addr))
	}

	return (*uint32)(unsafe.Pointer(&m.mem[addr-m.base]))
}

// Load32 reads the word at addr.
func (m *MMIO) Load32(addr uint64) uint32 {
	return atomic.LoadUint32(m.word(addr))
}

// Store32 writes the word at addr.
func (m *MMIO) Store32(addr uint64, value uint32) {
	atomic.StoreUint32(m.word(addr), value)
}

var _ Bus = (*MMIO)(nil)
