package disf

import "math"

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// RemovalPolicy decides which element leaves the queue first.
type RemovalPolicy int

const (
	MinValuePolicy RemovalPolicy = iota
	MaxValuePolicy
)

// ElemState tracks an index through the queue lifecycle.
type ElemState uint8

const (
	// StateWhite: never inserted, or removed out of order.
	StateWhite ElemState = iota
	// StateGray: currently queued.
	StateGray
	// StateBlack: popped in priority order.
	StateBlack
)

// PriorityQueue is a binary heap over the fixed index universe [0, size).
// Priorities live in a slice owned by the caller, so lowering or raising a
// priority in place must be followed by MoveUp or MoveDown. They are stored
// in double precision but ordered in single precision, so values that only
// differ beyond float32 resolution count as ties.
type PriorityQueue struct {
	prio   []float64
	state  []ElemState
	pos    []int
	node   []int
	last   int
	policy RemovalPolicy
}

func NewPriorityQueue(prio []float64, policy RemovalPolicy) *PriorityQueue {
	size := len(prio)
	q := &PriorityQueue{
		prio:   prio,
		state:  make([]ElemState, size),
		pos:    make([]int, size),
		node:   make([]int, size),
		policy: policy,
	}
	q.Reset()
	return q
}

func (q *PriorityQueue) Size() int {
	return len(q.node)
}

func (q *PriorityQueue) Len() int {
	return q.last + 1
}

func (q *PriorityQueue) Empty() bool {
	return q.last == -1
}

func (q *PriorityQueue) Full() bool {
	return q.last == len(q.node)-1
}

func (q *PriorityQueue) State(index int) ElemState {
	return q.state[index]
}

// Insert queues index. It reports false when the queue is full.
func (q *PriorityQueue) Insert(index int) bool {
	if q.Full() {
		return false
	}

	q.last++
	q.node[q.last] = index
	q.state[index] = StateGray
	q.pos[index] = q.last

	q.MoveUp(index)
	return true
}

// Pop removes the element with the highest precedence and marks it black.
// It returns -1 on an empty queue.
func (q *PriorityQueue) Pop() int {
	if q.Empty() {
		return -1
	}

	index := q.node[0]

	q.node[0] = q.node[q.last]
	q.pos[q.node[0]] = 0
	q.node[q.last] = -1
	q.last--

	q.pos[index] = -1
	q.state[index] = StateBlack

	if !q.Empty() {
		q.MoveDown(q.node[0])
	}
	return index
}

func (q *PriorityQueue) key(index int) float32 {
	return float32(q.prio[index])
}

func (q *PriorityQueue) precedes(a, b float32) bool {
	if q.policy == MinValuePolicy {
		return a < b
	}
	return a > b
}

func (q *PriorityQueue) swap(index, pos, otherIndex, otherPos int) {
	q.node[otherPos] = index
	q.pos[otherIndex] = pos
	q.node[pos] = otherIndex
	q.pos[index] = otherPos
}

// MoveDown sinks index after its priority lost precedence. A child with an
// equal priority is swapped as well, which makes ties resolve towards the
// most recently inserted element.
func (q *PriorityQueue) MoveDown(index int) {
	for index >= 0 && index < len(q.node) {
		pos := q.pos[index]
		currPos, currIndex := pos, index
		currPrio := q.key(index)

		for _, child := range [2]int{2*pos + 1, 2*pos + 2} {
			if child > q.last {
				continue
			}
			childIndex := q.node[child]
			childPrio := q.key(childIndex)
			if q.precedes(childPrio, currPrio) || childPrio == currPrio {
				currPos, currIndex, currPrio = child, childIndex, childPrio
			}
		}

		if currPos == pos {
			return
		}
		q.swap(index, pos, currIndex, currPos)
	}
}

// MoveUp raises index after its priority gained precedence.
func (q *PriorityQueue) MoveUp(index int) {
	for index >= 0 && index < len(q.node) {
		pos := q.pos[index]
		if pos <= 0 {
			return
		}
		parent := (pos - 1) / 2
		parentIndex := q.node[parent]
		if !q.precedes(q.key(index), q.key(parentIndex)) {
			return
		}
		q.swap(index, pos, parentIndex, parent)
	}
}

// Remove takes index out of the queue regardless of its priority and marks
// it white again.
func (q *PriorityQueue) Remove(index int) {
	if q.state[index] != StateGray {
		return
	}
	saved := q.prio[index]
	if q.policy == MinValuePolicy {
		q.prio[index] = negInf
	} else {
		q.prio[index] = posInf
	}
	q.MoveUp(index)
	q.Pop()

	q.prio[index] = saved
	q.state[index] = StateWhite
}

// Reset empties the queue and whitens every index.
func (q *PriorityQueue) Reset() {
	for i := range q.node {
		q.state[i] = StateWhite
		q.pos[i] = -1
		q.node[i] = -1
	}
	q.last = -1
}
