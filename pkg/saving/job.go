package saving

import (
	"time"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Job is one queued snapshot write. For a given session only the job with the
// largest timestamp that has actually been processed is authoritative; a job
// whose timestamp is not newer than the last committed one is a no-op.
type Job struct {
	SessionID string
	Snapshot  domain.Snapshot
	Level     domain.Level
	Timestamp time.Time

	priority int
	seq      uint64        // FIFO tiebreaker within a priority
	ack      chan struct{} // closed once the job has been handled
}

const (
	priorityAsync = 1
	prioritySync  = 10
)

// jobQueue is a max-heap on priority; equal priorities drain in enqueue
// order. Implements container/heap.
type jobQueue []*Job

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(*Job)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return job
}
