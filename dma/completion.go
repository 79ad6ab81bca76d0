package dma

import "fmt"

// ID is a completion identifier. Identifiers of one queue increase by one
// per launched transfer and wrap at 2^IDWidth.
type ID uint32

// IDWidth is the width of the identifier counters.
const IDWidth = 32

// A Ticket names a launched transfer. IDs are only comparable within their
// queue, so the queue travels with the ID.
type Ticket struct {
	Queue Queue
	ID    ID
}

func (t Ticket) String() string {
	return fmt.Sprintf("%s#%d", t.Queue, t.ID)
}

// IsDone tells whether id is at or before done on the identifier ring, that
// is, whether the 32-bit two's-complement distance id-done is not positive.
//
// The answer is only meaningful while fewer than 2^31 transfers have been
// launched on the queue since id. Callers must wait on outstanding tickets
// before issuing that many more.
func IsDone(done, id ID) bool {
	return int32(id-done) <= 0
}

func widthMask(width uint) uint64 {
	return 1<<width - 1
}

// isDoneWidth is IsDone on a ring of 2^width identifiers.
func isDoneWidth(done, id uint64, width uint) bool {
	mask := widthMask(width)
	dist := (id - done) & mask

	return dist == 0 || dist >= 1<<(width-1)
}

// GuardWindowDone is the completion test of the hardware abstraction layer
// this package replaces. When done and id lie in the same half of the ring
// it compares them directly. Otherwise it assumes the counter has just
// crossed a half boundary and reports completion when done sits in the
// first quarter of its half.
//
// It agrees with IsDone whenever the ring distance between done and id is
// below 2^(width-2).
func GuardWindowDone(done, id uint64, width uint) bool {
	mask := widthMask(width)
	done &= mask
	id &= mask
	top := width - 1

	if done>>top == id>>top {
		return id <= done
	}

	return done&(1<<top-1) < 1<<(width-2)
}
