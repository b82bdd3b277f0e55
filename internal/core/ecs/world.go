package ecs

// ReleaseQueue defers removal of destroyed entities to the end of a phase, so
// a pass over the live set never observes an instance going back to its pool.
type ReleaseQueue struct {
	queue []EntityID
}

func NewReleaseQueue() *ReleaseQueue {
	return &ReleaseQueue{queue: make([]EntityID, 0, 16)}
}

// Mark queues id for release. Duplicate marks are collapsed on flush.
func (q *ReleaseQueue) Mark(id EntityID) {
	q.queue = append(q.queue, id)
}

func (q *ReleaseQueue) Len() int { return len(q.queue) }

// Flush calls release once per queued ID in mark order and empties the queue.
func (q *ReleaseQueue) Flush(release func(EntityID)) {
	seen := make(map[EntityID]struct{}, len(q.queue))
	for _, id := range q.queue {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		release(id)
	}
	q.queue = q.queue[:0]
}
