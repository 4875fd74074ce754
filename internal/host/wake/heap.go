package wake

import "container/heap"

// wakeHeap implements container/heap.Interface for entries, sorted by
// estimated fire time (earliest first).
type wakeHeap []*entry

func (h wakeHeap) Len() int { return len(h) }
func (h wakeHeap) Less(i, j int) bool {
	if h[i].eta.Equal(h[j].eta) {
		return h[i].seq < h[j].seq
	}
	return h[i].eta.Before(h[j].eta)
}
func (h wakeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *wakeHeap) Push(x any) {
	*h = append(*h, x.(*entry))
}

func (h *wakeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

func heapPush(h *wakeHeap, e *entry) {
	heap.Push(h, e)
}

func heapPop(h *wakeHeap) *entry {
	return heap.Pop(h).(*entry)
}

// heapRemoveByKey removes the entry registered under key.
// Returns true if the entry was found and removed.
func heapRemoveByKey(h *wakeHeap, key int) bool {
	for i, e := range *h {
		if e.wake.Key == key {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
