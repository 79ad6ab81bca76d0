package timing

import "container/heap"

// pending orders events by cycle, then by the order they were scheduled.
type pending struct {
	evts []*ScheduledEvent
	seqs []uint64
	next uint64
}

func (p *pending) Len() int { return len(p.evts) }

func (p *pending) Less(i, j int) bool {
	ti, tj := p.evts[i].Time, p.evts[j].Time
	if ti == tj {
		return p.seqs[i] < p.seqs[j]
	}

	return ti < tj
}

func (p *pending) Swap(i, j int) {
	p.evts[i], p.evts[j] = p.evts[j], p.evts[i]
	p.seqs[i], p.seqs[j] = p.seqs[j], p.seqs[i]
}

func (p *pending) Push(x any) {
	p.evts = append(p.evts, x.(*ScheduledEvent))
	p.seqs = append(p.seqs, p.next)
	p.next++
}

func (p *pending) Pop() any {
	last := len(p.evts) - 1
	evt := p.evts[last]
	p.evts = p.evts[:last]
	p.seqs = p.seqs[:last]

	return evt
}

func (p *pending) add(evt *ScheduledEvent) {
	heap.Push(p, evt)
}

func (p *pending) take() *ScheduledEvent {
	if len(p.evts) == 0 {
		return nil
	}

	return heap.Pop(p).(*ScheduledEvent)
}
