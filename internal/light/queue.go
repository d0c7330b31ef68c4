package light

import "github.com/gammazero/deque"

// queueEntry is the bookkeeping for a queued node: the bucket it lives in and
// the level it was last computed to have.
type queueEntry struct {
	priority uint8
	computed uint8
}

// updateQueue is a bucket queue indexed by level. Nodes are drained lowest
// bucket first so that a node is settled only after every brighter node that
// could affect it. Removal is lazy: a node's deque slot is left behind and
// skipped when its entry no longer points at that bucket.
type updateQueue struct {
	buckets [levelCount]deque.Deque[Addr]
	live    [levelCount]int
	entries map[Addr]queueEntry
	// first is the lowest bucket that may hold live nodes.
	first int
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{entries: make(map[Addr]queueEntry), first: levelCount}
}

// get returns the computed level of a queued node.
func (q *updateQueue) get(a Addr) (int, bool) {
	e, ok := q.entries[a]
	return int(e.computed), ok
}

// enqueue places a in bucket priority with the given computed level, moving it
// if it was queued elsewhere.
func (q *updateQueue) enqueue(a Addr, priority, computed int) {
	e, ok := q.entries[a]
	if ok && int(e.priority) == priority {
		e.computed = uint8(computed)
		q.entries[a] = e
		return
	}
	if ok {
		q.live[e.priority]--
	}
	q.buckets[priority].PushBack(a)
	q.live[priority]++
	q.entries[a] = queueEntry{priority: uint8(priority), computed: uint8(computed)}
	if priority < q.first {
		q.first = priority
	}
}

// remove drops a from the queue if present.
func (q *updateQueue) remove(a Addr) {
	e, ok := q.entries[a]
	if !ok {
		return
	}
	q.live[e.priority]--
	delete(q.entries, a)
}

// removeIf drops every queued node matching pred and returns them.
func (q *updateQueue) removeIf(pred func(Addr) bool) []Addr {
	var removed []Addr
	for a := range q.entries {
		if pred(a) {
			q.remove(a)
			removed = append(removed, a)
		}
	}
	return removed
}

// pop removes and returns the first node of the lowest non-empty bucket along
// with its computed level.
func (q *updateQueue) pop() (Addr, int, bool) {
	for q.first < levelCount {
		b := &q.buckets[q.first]
		if q.live[q.first] == 0 {
			b.Clear()
			q.first++
			continue
		}
		for b.Len() > 0 {
			a := b.PopFront()
			e, ok := q.entries[a]
			if !ok || int(e.priority) != q.first {
				continue
			}
			delete(q.entries, a)
			q.live[q.first]--
			return a, int(e.computed), true
		}
		q.first++
	}
	return 0, 0, false
}

// len returns the number of queued nodes.
func (q *updateQueue) len() int { return len(q.entries) }
