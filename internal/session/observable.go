package session

import "sync"

// Observable holds a value and pushes every change to its subscribers.
// Each subscriber gets its own goroutine and queue, so a slow subscriber never
// blocks Set or the other subscribers, and one subscriber never sees two
// deliveries at once.
type Observable[T any] struct {
	mu     sync.Mutex
	value  T
	nextID uint64
	subs   map[uint64]*subscriber[T]
}

func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[uint64]*subscriber[T])}
}

// Value returns the current value.
func (o *Observable[T]) Value() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set stores v and queues it for every subscriber.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = v
	for _, s := range o.subs {
		s.push(v)
	}
}

// Subscribe registers fn. The current value is delivered right away, then
// every later Set in order. The returned func stops delivery; it is safe to
// call more than once and from inside fn.
func (o *Observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s := newSubscriber(fn)

	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = s
	s.push(o.value)
	o.mu.Unlock()

	go s.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
			s.stop()
		})
	}
}

// Close unsubscribes everyone.
func (o *Observable[T]) Close() {
	o.mu.Lock()
	subs := o.subs
	o.subs = make(map[uint64]*subscriber[T])
	o.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

// Subscribers returns the number of active subscriptions.
func (o *Observable[T]) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

type subscriber[T any] struct {
	fn    func(T)
	mu    sync.Mutex
	cond  *sync.Cond
	queue []T
	done  bool
}

func newSubscriber[T any](fn func(T)) *subscriber[T] {
	s := &subscriber[T]{fn: fn}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	if !s.done {
		s.queue = append(s.queue, v)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber[T]) stop() {
	s.mu.Lock()
	s.done = true
	s.queue = nil
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber[T]) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.done {
			s.cond.Wait()
		}
		if s.done {
			s.mu.Unlock()
			return
		}
		v := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(v)
	}
}
