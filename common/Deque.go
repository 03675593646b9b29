package common

// Element is a node of a Deque.
type Element[T any] struct {
	// The deque is a ring through its root: root.next is Front, root.prev is
	// Back. Detached elements have both links nil.
	next, prev *Element[T]

	Value T
}

// Deque is a doubly linked list usable from both ends. The zero value is not
// ready for use; call NewDeque.
type Deque[T any] struct {
	root Element[T]
	size int
}

func NewDeque[T any]() *Deque[T] {
	return new(Deque[T]).init()
}

func (d *Deque[T]) init() *Deque[T] {
	d.root.next = &d.root
	d.root.prev = &d.root
	d.size = 0
	return d
}

func (d *Deque[T]) link(e, at *Element[T]) {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	d.size++
}

func (d *Deque[T]) unlink(e *Element[T]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	d.size--
}

func (d *Deque[T]) Size() int {
	return d.size
}

// Remove unlinks e. Detached elements are ignored.
func (d *Deque[T]) Remove(e *Element[T]) {
	if e.next == nil && e.prev == nil {
		return
	}
	d.unlink(e)
}

// Front returns the first element or nil.
func (d *Deque[T]) Front() *Element[T] {
	if d.size == 0 {
		return nil
	}
	return d.root.next
}

// Back returns the last element or nil.
func (d *Deque[T]) Back() *Element[T] {
	if d.size == 0 {
		return nil
	}
	return d.root.prev
}

// Next returns the element after e, nil at the back.
func (d *Deque[T]) Next(e *Element[T]) *Element[T] {
	if e.next == &d.root {
		return nil
	}
	return e.next
}

// Prev returns the element before e, nil at the front.
func (d *Deque[T]) Prev(e *Element[T]) *Element[T] {
	if e.prev == &d.root {
		return nil
	}
	return e.prev
}

func (d *Deque[T]) PopBack() *Element[T] {
	if d.size == 0 {
		return nil
	}
	e := d.root.prev
	d.unlink(e)
	return e
}

// MoveToFront relinks e, attached or not, as the first element.
func (d *Deque[T]) MoveToFront(e *Element[T]) {
	if d.root.next == e {
		return
	}
	d.Remove(e)
	d.link(e, &d.root)
}

func (d *Deque[T]) PushFrontValue(v T) *Element[T] {
	e := &Element[T]{Value: v}
	d.link(e, &d.root)
	return e
}
