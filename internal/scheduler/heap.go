package scheduler

import (
	"time"
)

// trigger is one pending registration in the engine
type trigger struct {
	id       int64
	due      time.Time
	interval time.Duration
	callback Callback
	gen      uint64
	seq      uint64 // insertion order, breaks ties between equal due times
	index    int    // position in the heap; -1 once popped
}

// triggerHeap orders triggers by due time and implements container/heap
type triggerHeap []*trigger

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	t := x.(*trigger)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// peek returns the earliest trigger without removing it
func (h triggerHeap) peek() *trigger {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
