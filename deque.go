package workq

// deque is a growable ring buffer of items
//
// Properties:
// - PushBack/PopFront give FIFO order for workers
// - PopBack takes the newest item, used when spilling the surplus
// - Doubles its circular array when full, halves it when less than a
//   quarter full, never below minDequeCapacity
//
// NOT thread-safe: every call happens under the owning Queue's mutex.
type deque[T any] struct {
	// head is the index of the oldest item (monotonic, wrapped on access)
	head int64

	// tail is one past the newest item (monotonic, wrapped on access)
	tail int64

	array *circularArray[T]
}

// circularArray is the underlying storage for the deque
type circularArray[T any] struct {
	capacity int64
	buffer   []T
}

const minDequeCapacity = 16

func newDeque[T any](initialCapacity int64) *deque[T] {
	if initialCapacity < minDequeCapacity {
		initialCapacity = minDequeCapacity
	}
	return &deque[T]{array: newCircularArray[T](initialCapacity)}
}

func newCircularArray[T any](capacity int64) *circularArray[T] {
	return &circularArray[T]{
		capacity: capacity,
		buffer:   make([]T, capacity),
	}
}

func (a *circularArray[T]) get(index int64) T {
	return a.buffer[index%a.capacity]
}

func (a *circularArray[T]) put(index int64, item T) {
	a.buffer[index%a.capacity] = item
}

// clear zeroes a slot so the deque does not keep a popped item reachable
func (a *circularArray[T]) clear(index int64) {
	var zero T
	a.buffer[index%a.capacity] = zero
}

// PushBack appends an item at the tail
func (d *deque[T]) PushBack(item T) {
	if d.tail-d.head >= d.array.capacity {
		d.array = d.resize()
	}
	d.array.put(d.tail, item)
	d.tail++
}

// PopFront removes and returns the oldest item
func (d *deque[T]) PopFront() (T, bool) {
	if d.head == d.tail {
		var zero T
		return zero, false
	}
	item := d.array.get(d.head)
	d.array.clear(d.head)
	d.head++
	d.rebase()
	d.shrink()
	return item, true
}

// PopBack removes and returns the newest item
func (d *deque[T]) PopBack() (T, bool) {
	if d.head == d.tail {
		var zero T
		return zero, false
	}
	d.tail--
	item := d.array.get(d.tail)
	d.array.clear(d.tail)
	d.rebase()
	d.shrink()
	return item, true
}

// rebase resets both indices once the deque is empty so they never overflow
func (d *deque[T]) rebase() {
	if d.head == d.tail {
		d.head, d.tail = 0, 0
	}
}

// resize creates a new array twice as large
func (d *deque[T]) resize() *circularArray[T] {
	return d.copyTo(d.array.capacity * 2)
}

// shrink halves the array once the items fill less than a quarter of it,
// so a burst that was spilled does not pin its peak-size buffer
func (d *deque[T]) shrink() {
	if d.array.capacity > minDequeCapacity && d.tail-d.head < d.array.capacity/4 {
		d.array = d.copyTo(d.array.capacity / 2)
	}
}

// copyTo moves the live items, oldest first, to the same logical indices of
// a new array of the given capacity
func (d *deque[T]) copyTo(capacity int64) *circularArray[T] {
	newArray := newCircularArray[T](capacity)
	for i := d.head; i < d.tail; i++ {
		newArray.put(i, d.array.get(i))
	}
	return newArray
}

// Len returns the number of items held
func (d *deque[T]) Len() int {
	return int(d.tail - d.head)
}

// IsEmpty returns true if the deque holds no items
func (d *deque[T]) IsEmpty() bool {
	return d.head == d.tail
}

// Capacity returns the current capacity of the circular array
func (d *deque[T]) Capacity() int64 {
	return d.array.capacity
}

// Reset drops all items and shrinks back to the minimum capacity
func (d *deque[T]) Reset() {
	d.head, d.tail = 0, 0
	d.array = newCircularArray[T](minDequeCapacity)
}
