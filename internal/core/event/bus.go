package event

import (
	"reflect"
	"sync"
)

// Queue is a double-buffered outbound event queue. Events emitted during
// frame N land in the back buffer; Flush at frame end rotates them to the
// front buffer, where the presentation layer reads them with Drain or typed
// handlers receive them through DispatchAll.
type Queue struct {
	mu       sync.Mutex // only protects handler registration
	front    []any
	back     []any
	handlers map[reflect.Type][]any
}

func NewQueue() *Queue {
	return &Queue{
		front:    make([]any, 0, 32),
		back:     make([]any, 0, 32),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer (readable after the next Flush).
func Emit[T any](q *Queue, event T) {
	q.back = append(q.back, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](q *Queue, fn func(T)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	q.handlers[t] = append(q.handlers[t], fn)
}

// Flush rotates back→front. Events left undrained in the front buffer from
// the previous frame are kept ahead of the new ones.
func (q *Queue) Flush() {
	if len(q.front) == 0 {
		q.front, q.back = q.back, q.front[:0]
		return
	}
	q.front = append(q.front, q.back...)
	q.back = q.back[:0]
}

// Drain returns the front buffer in emission order and clears it. The
// returned slice is owned by the caller.
func (q *Queue) Drain() []any {
	if len(q.front) == 0 {
		return nil
	}
	out := make([]any, len(q.front))
	copy(out, q.front)
	q.front = q.front[:0]
	return out
}

// Pending returns the number of events emitted since the last Flush.
func (q *Queue) Pending() int {
	return len(q.back)
}

// DispatchAll delivers front-buffer events to their subscribed handlers in
// emission order, then drains the front buffer and returns what it held, so
// untyped consumers still see every event.
func (q *Queue) DispatchAll() []any {
	for _, ev := range q.front {
		for _, h := range q.handlers[reflect.TypeOf(ev)] {
			callHandler(h, ev)
		}
	}
	return q.Drain()
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
