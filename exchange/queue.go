package exchange

import "container/heap"

// bookEntry wraps a resting order for heap operations.
type bookEntry struct {
	order *restingOrder
	index int
	isBid bool
}

// priceTimeQueue keeps price-time priority: best price first, oldest first
// within a price level.
type priceTimeQueue []*bookEntry

func (q priceTimeQueue) Len() int { return len(q) }

func (q priceTimeQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if cmp := a.order.Price.Cmp(b.order.Price); cmp != 0 {
		if a.isBid {
			return cmp > 0
		}
		return cmp < 0
	}
	if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
		return a.order.CreatedAt.Before(b.order.CreatedAt)
	}
	return a.order.seq < b.order.seq
}

func (q priceTimeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *priceTimeQueue) Push(x any) {
	entry := x.(*bookEntry)
	entry.index = len(*q)
	*q = append(*q, entry)
}

func (q *priceTimeQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	entry.index = -1
	*q = old[0 : n-1]
	return entry
}

func (q priceTimeQueue) peek() *bookEntry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

func (q *priceTimeQueue) remove(entry *bookEntry) *bookEntry {
	return heap.Remove(q, entry.index).(*bookEntry)
}
