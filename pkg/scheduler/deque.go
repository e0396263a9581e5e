package scheduler

// deque is a ring buffer of requests. Retries go to the front, new work to
// the back.
type deque struct {
	buf  []*request
	head int
	n    int
}

func (d *deque) Len() int { return d.n }

func (d *deque) grow() {
	if d.n < len(d.buf) {
		return
	}
	size := 2 * len(d.buf)
	if size == 0 {
		size = 8
	}
	buf := make([]*request, size)
	for i := 0; i < d.n; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}

func (d *deque) PushBack(r *request) {
	d.grow()
	d.buf[(d.head+d.n)%len(d.buf)] = r
	d.n++
}

func (d *deque) PushFront(r *request) {
	d.grow()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = r
	d.n++
}

// PopFront panics on an empty deque.
func (d *deque) PopFront() *request {
	if d.n == 0 {
		panic("scheduler: pop from empty queue")
	}
	r := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.n--
	return r
}
