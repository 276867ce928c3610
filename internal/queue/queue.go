// Package queue holds the pending tracks of one guild.
package queue

import "github.com/genricoloni/lavaqueue/internal/domain"

// Queue is a FIFO of track items. It is not safe for concurrent use; a
// player owns its queue and touches it only from its own loop.
type Queue struct {
	items []domain.TrackQueueItem
}

// New returns a queue holding items in order.
func New(items ...domain.TrackQueueItem) *Queue {
	q := &Queue{}
	q.AppendMany(items)
	return q
}

// Append adds item at the tail.
func (q *Queue) Append(item domain.TrackQueueItem) {
	q.items = append(q.items, item)
}

// AppendMany adds items at the tail, keeping their order.
func (q *Queue) AppendMany(items []domain.TrackQueueItem) {
	q.items = append(q.items, items...)
}

// RemoveFront removes up to count items from the head and returns them.
// Counts larger than the queue empty it.
func (q *Queue) RemoveFront(count int) []domain.TrackQueueItem {
	if count <= 0 {
		return nil
	}
	count = min(count, len(q.items))

	removed := make([]domain.TrackQueueItem, count)
	copy(removed, q.items[:count])

	clear(q.items[:count])
	q.items = q.items[count:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return removed
}

// PeekFront returns the head item without removing it.
func (q *Queue) PeekFront() (domain.TrackQueueItem, bool) {
	return q.At(0)
}

// At returns the item at position i.
func (q *Queue) At(i int) (domain.TrackQueueItem, bool) {
	if i < 0 || i >= len(q.items) {
		return domain.TrackQueueItem{}, false
	}
	return q.items[i], true
}

// Items returns a copy of the queue contents.
func (q *Queue) Items() []domain.TrackQueueItem {
	out := make([]domain.TrackQueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// Clear removes every item and returns how many were dropped.
func (q *Queue) Clear() int {
	n := len(q.items)
	q.items = nil
	return n
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}
