// Package idgen hands out identifiers that are unique within one generator
// and reproducible from run to run.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// ID is an identifier issued by a Generator.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// A Generator issues IDs. It is safe for concurrent use.
type Generator interface {
	Generate() ID
}

// New returns a Generator that counts up from 1.
func New() Generator {
	return NewFrom(1)
}

// NewFrom returns a Generator whose first ID is first.
func NewFrom(first ID) Generator {
	c := &counter{}
	c.last.Store(uint64(first) - 1)

	return c
}

type counter struct {
	last atomic.Uint64
}

func (c *counter) Generate() ID {
	return ID(c.last.Add(1))
}
