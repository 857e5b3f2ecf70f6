package datastructure

import (
	"errors"
)

// SegmentQueryKey. label of the segment search: a segment entered through one of its nodes.
type SegmentQueryKey struct {
	segment SegmentID
	entry   NodeID
}

func NewSegmentQueryKey(segment SegmentID, entry NodeID) SegmentQueryKey {
	return SegmentQueryKey{segment: segment, entry: entry}
}

func (qk SegmentQueryKey) GetSegment() SegmentID {
	return qk.segment
}

func (qk SegmentQueryKey) GetEntry() NodeID {
	return qk.entry
}

type PriorityQueueNode[T comparable] struct {
	rank    float64
	item    T
	itemPos int
}

func NewPriorityQueueNode[T comparable](rank float64, item T) *PriorityQueueNode[T] {
	return &PriorityQueueNode[T]{rank: rank, item: item}
}

func (p *PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p *PriorityQueueNode[T]) GetRank() float64 {
	return p.rank
}

// GetPos. index in the heap, -1 once extracted
func (p *PriorityQueueNode[T]) GetPos() int {
	return p.itemPos
}

var errEmptyHeap = errors.New("heap is empty")

// MinHeap. d-ary min heap whose nodes know their position, so ranks can be decreased in place.
type MinHeap[T comparable] struct {
	heap []*PriorityQueueNode[T]
	d    int
}

func NewFourAryHeap[T comparable]() *MinHeap[T] {
	return NewdAryHeap[T](4)
}

func NewdAryHeap[T comparable](d int) *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]*PriorityQueueNode[T], 0),
		d:    d,
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / h.d
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.heap[i].itemPos = i
	h.heap[j].itemPos = j
}

func (h *MinHeap[T]) siftUp(index int) {
	for index > 0 && h.heap[index].rank < h.heap[h.parent(index)].rank {
		p := h.parent(index)
		h.swap(index, p)
		index = p
	}
}

func (h *MinHeap[T]) siftDown(index int) {
	for {
		first := index*h.d + 1
		if first >= len(h.heap) {
			return
		}
		last := min(first+h.d, len(h.heap))

		smallest := first
		for c := first + 1; c < last; c++ {
			if h.heap[c].rank < h.heap[smallest].rank {
				smallest = c
			}
		}
		if h.heap[smallest].rank >= h.heap[index].rank {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Insert(node *PriorityQueueNode[T]) {
	h.heap = append(h.heap, node)
	node.itemPos = len(h.heap) - 1
	h.siftUp(node.itemPos)
}

// ExtractMin. removes and returns the node with the lowest rank
func (h *MinHeap[T]) ExtractMin() (*PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return nil, errEmptyHeap
	}
	root := h.heap[0]
	h.swap(0, len(h.heap)-1)
	h.heap = h.heap[:len(h.heap)-1]
	root.itemPos = -1
	if len(h.heap) > 0 {
		h.siftDown(0)
	}
	return root, nil
}

// DecreaseKey. lowers the rank of a node still in the heap
func (h *MinHeap[T]) DecreaseKey(node *PriorityQueueNode[T], rank float64) error {
	pos := node.itemPos
	if pos < 0 || pos >= len(h.heap) || h.heap[pos] != node || node.rank < rank {
		return errors.New("node not in heap or rank not lower")
	}
	node.rank = rank
	h.siftUp(pos)
	return nil
}
