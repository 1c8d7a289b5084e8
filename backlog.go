package workq

// node is one backlog entry. A node belongs to exactly one backlog or chain
// at a time; moving it means unlinking it from one and linking it into the other.
type node[T any] struct {
	next *node[T]
	item T
}

// chain is a detached run of nodes, produced by a routine invocation or cut
// from a backlog by the control loop.
type chain[T any] struct {
	first, last *node[T]
	n           int
}

func (c *chain[T]) push(item T) {
	nd := &node[T]{item: item}
	if c.last == nil {
		c.first = nd
	} else {
		c.last.next = nd
	}
	c.last = nd
	c.n++
}

// each visits the items of the chain in order
func (c *chain[T]) each(fn func(T)) {
	for nd := c.first; nd != nil; nd = nd.next {
		fn(nd.item)
	}
}

func (c *chain[T]) len() int { return c.n }

// backlog is a worker's private singly linked list of items that still have
// to be explored. The head is the item currently being explored.
type backlog[T any] struct {
	first, last *node[T]
	n           int
}

// front returns the head item without removing it
func (b *backlog[T]) front() (T, bool) {
	if b.first == nil {
		var zero T
		return zero, false
	}
	return b.first.item, true
}

// pushBack appends a single item
func (b *backlog[T]) pushBack(item T) {
	nd := &node[T]{item: item}
	b.splice(&chain[T]{first: nd, last: nd, n: 1})
}

// splice moves every node of c to the tail of the backlog and empties c
func (b *backlog[T]) splice(c *chain[T]) {
	if c.first == nil {
		return
	}
	if b.last == nil {
		b.first = c.first
	} else {
		b.last.next = c.first
	}
	b.last = c.last
	b.n += c.n
	*c = chain[T]{}
}

// popFront drops the head
func (b *backlog[T]) popFront() {
	if b.first == nil {
		return
	}
	nd := b.first
	b.first = nd.next
	nd.next = nil
	if b.first == nil {
		b.last = nil
	}
	b.n--
}

// detachTail cuts every node after the head and returns them as a chain.
// The head stays in place.
func (b *backlog[T]) detachTail() chain[T] {
	if b.first == nil || b.first.next == nil {
		return chain[T]{}
	}
	c := chain[T]{first: b.first.next, last: b.last, n: b.n - 1}
	b.first.next = nil
	b.last = b.first
	b.n = 1
	return c
}

// clear drops every node and returns how many were dropped
func (b *backlog[T]) clear() int {
	n := b.n
	*b = backlog[T]{}
	return n
}

func (b *backlog[T]) len() int { return b.n }
