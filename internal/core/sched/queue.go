package sched

import "container/heap"

// Entry is one scheduled item with its absolute wake frame, exposed for
// snapshotting so a resumed queue needs no re-derivation of its buckets.
type Entry[T comparable] struct {
	Item  T
	Frame uint64
}

// Queue is a wake queue: items bucketed by the absolute logic frame they are
// next eligible to run on. An item is present in at most one bucket at a time.
// Iteration order is deterministic: ascending frame, then insertion order
// within a frame, which is what the replay contract requires.
//
// The queue is single-writer; the logic driver owns it and nothing else
// touches it.
type Queue[T comparable] struct {
	buckets map[uint64][]T
	frames  frameHeap
	index   map[T]uint64 // scheduled item -> its current wake frame
}

func NewQueue[T comparable]() *Queue[T] {
	return &Queue[T]{
		buckets: make(map[uint64][]T, 64),
		index:   make(map[T]uint64, 256),
	}
}

// Len returns the number of items currently scheduled.
func (q *Queue[T]) Len() int { return len(q.index) }

// Scheduled returns the wake frame the item is currently bucketed under.
func (q *Queue[T]) Scheduled(item T) (frame uint64, ok bool) {
	frame, ok = q.index[item]
	return frame, ok
}

// Schedule resolves the sleep directive against the current frame and inserts
// the item into the resulting bucket. A Forever directive leaves the item out
// of the queue entirely. If the item is already scheduled it is moved, never
// duplicated.
func (q *Queue[T]) Schedule(item T, sleep Sleep, current uint64) {
	q.remove(item)
	frame, ok := sleep.wakeFrame(current)
	if !ok {
		return
	}
	q.insert(item, frame)
}

// ForceWake moves the item into the current frame's bucket so the next drain
// of this frame returns it. Used by external stimuli, independent of whatever
// the unit last returned.
func (q *Queue[T]) ForceWake(item T, current uint64) {
	if frame, ok := q.index[item]; ok && frame <= current {
		// Already due this frame or overdue; moving it would only reorder.
		return
	}
	q.remove(item)
	q.insert(item, current)
}

// Remove takes the item out of the queue wherever it is scheduled. Called when
// the owning entity is destroyed.
func (q *Queue[T]) Remove(item T) {
	q.remove(item)
}

// DrainDue removes and returns every item whose wake frame is <= current. The
// <= rather than == self-heals skipped frames after a long pause or a load.
// Drained buckets are deleted before the caller sees the batch, so directives
// returned while the batch is being invoked can never re-enter it.
func (q *Queue[T]) DrainDue(current uint64) []T {
	if len(q.frames) == 0 || q.frames[0] > current {
		return nil
	}
	var due []T
	seen := make(map[T]struct{})
	for len(q.frames) > 0 && q.frames[0] <= current {
		frame := heap.Pop(&q.frames).(uint64)
		for _, item := range q.buckets[frame] {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			delete(q.index, item)
			due = append(due, item)
		}
		delete(q.buckets, frame)
	}
	return due
}

// Snapshot returns every scheduled item with its wake frame in deterministic
// order (frame ascending, insertion order within a frame).
func (q *Queue[T]) Snapshot() []Entry[T] {
	frames := q.frames.sorted()
	entries := make([]Entry[T], 0, len(q.index))
	for _, frame := range frames {
		for _, item := range q.buckets[frame] {
			entries = append(entries, Entry[T]{Item: item, Frame: frame})
		}
	}
	return entries
}

// Restore replaces the queue's contents with the given entries, preserving
// their order within each frame.
func (q *Queue[T]) Restore(entries []Entry[T]) {
	q.buckets = make(map[uint64][]T, 64)
	q.frames = q.frames[:0]
	q.index = make(map[T]uint64, len(entries))
	for _, e := range entries {
		q.insert(e.Item, e.Frame)
	}
}

func (q *Queue[T]) insert(item T, frame uint64) {
	if _, ok := q.buckets[frame]; !ok {
		heap.Push(&q.frames, frame)
	}
	q.buckets[frame] = append(q.buckets[frame], item)
	q.index[item] = frame
}

// remove drops the item from both the index and its bucket. Buckets are
// small, so the linear scan is cheaper than keeping tombstones honest.
func (q *Queue[T]) remove(item T) {
	frame, ok := q.index[item]
	if !ok {
		return
	}
	delete(q.index, item)
	bucket := q.buckets[frame]
	for i, it := range bucket {
		if it == item {
			q.buckets[frame] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(q.buckets[frame]) == 0 {
		delete(q.buckets, frame)
		q.frames.removeFrame(frame)
	}
}

// frameHeap is a min-heap of occupied bucket frames.
type frameHeap []uint64

func (h frameHeap) Len() int            { return len(h) }
func (h frameHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h frameHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frameHeap) Push(x any) { *h = append(*h, x.(uint64)) }
func (h *frameHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h *frameHeap) removeFrame(frame uint64) {
	for i, f := range *h {
		if f == frame {
			heap.Remove(h, i)
			return
		}
	}
}

func (h frameHeap) sorted() []uint64 {
	out := append([]uint64(nil), h...)
	// Insertion sort; the heap rarely holds more than a few dozen frames.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
