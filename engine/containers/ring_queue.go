package containers

import "errors"

// Queue is a fixed-capacity, FIFO ring buffer generalized over element type.
// It backs the step interpreter's consumption of a producer-owned step
// sequence: steps are enqueued once at run_steps time and dequeued one at a
// time as each is executed, so the sequence is never re-runnable once
// drained.
type Queue[T any] struct {
	data       []T
	size       int
	readIndex  int
	writeIndex int
	count      int
}

// NewQueue creates a new Queue with the given fixed capacity.
func NewQueue[T any](size int) *Queue[T] {
	return &Queue[T]{
		data: make([]T, size),
		size: size,
	}
}

// Enqueue adds an element to the queue.
func (q *Queue[T]) Enqueue(value T) error {
	if q.IsFull() {
		return errors.New("queue is full")
	}

	q.data[q.writeIndex] = value
	q.writeIndex = (q.writeIndex + 1) % q.size
	q.count++
	return nil
}

// Dequeue removes and returns the front element in the queue.
func (q *Queue[T]) Dequeue() (T, error) {
	var zero T
	if q.IsEmpty() {
		return zero, errors.New("queue is empty")
	}

	value := q.data[q.readIndex]
	q.data[q.readIndex] = zero // release the reference so it isn't re-runnable
	q.readIndex = (q.readIndex + 1) % q.size
	q.count--
	return value, nil
}

// Peek returns the front element without removing it.
func (q *Queue[T]) Peek() (T, error) {
	var zero T
	if q.IsEmpty() {
		return zero, errors.New("queue is empty")
	}
	return q.data[q.readIndex], nil
}

// IsEmpty checks if the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return q.count == 0
}

// IsFull checks if the queue is full.
func (q *Queue[T]) IsFull() bool {
	return q.count == q.size
}

// Len returns the number of elements currently queued.
func (q *Queue[T]) Len() int {
	return q.count
}
