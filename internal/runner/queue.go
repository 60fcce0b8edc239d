package runner

import (
	"sync"

	"github.com/torosent/crankcheck/internal/scenario"
)

// Queue is the ordered list of actions still waiting to be dispatched.
type Queue struct {
	mu      sync.Mutex
	actions []scenario.Action
}

// NewQueue copies actions into a queue that pops them in order.
func NewQueue(actions []scenario.Action) *Queue {
	return &Queue{actions: append([]scenario.Action(nil), actions...)}
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (scenario.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.actions) == 0 {
		return scenario.Action{}, false
	}
	head := q.actions[0]
	q.actions = q.actions[1:]
	return head, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}
