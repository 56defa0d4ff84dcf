package ecs

// pageSize is the number of slots per arena page. Pages are never
// reallocated, so pointers returned by Alloc/Get stay valid until Free.
const pageSize = 256

// Resetter is implemented by arena values that keep some fields across pool
// reuse (render handles) and strip the rest.
type Resetter interface {
	ResetForPool()
}

type slot[T any] struct {
	used bool
	val  T
}

// Arena is a paged arena-of-structs addressed by generational EntityIDs.
// Freed slots are recycled through the EntityPool free list. Removal can be
// deferred with MarkForRemoval and applied in bulk by FlushRemovals, which is
// how the per-frame cleanup pass returns dead entities to the pool.
//
// Single-goroutine access only (game loop).
type Arena[T any] struct {
	pool         *EntityPool
	pages        [][]slot[T]
	live         int
	removeQueue  []EntityID
	queuedRemove map[EntityID]struct{}
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		pool:         NewEntityPool(),
		pages:        make([][]slot[T], 0, 4),
		removeQueue:  make([]EntityID, 0, 64),
		queuedRemove: make(map[EntityID]struct{}, 64),
	}
}

func (a *Arena[T]) slotAt(idx uint32) *slot[T] {
	page := int(idx) / pageSize
	for page >= len(a.pages) {
		a.pages = append(a.pages, make([]slot[T], pageSize))
	}
	return &a.pages[page][int(idx)%pageSize]
}

// Alloc reserves a slot and returns its id and a pointer to the value.
// The value is in the state left by the last Free (reset or zero).
func (a *Arena[T]) Alloc() (EntityID, *T) {
	id := a.pool.Create()
	s := a.slotAt(id.Index())
	s.used = true
	a.live++
	return id, &s.val
}

// Get resolves an id. Stale ids (slot reused or freed) return false.
func (a *Arena[T]) Get(id EntityID) (*T, bool) {
	if !a.pool.Alive(id) {
		return nil, false
	}
	s := a.slotAt(id.Index())
	if !s.used {
		return nil, false
	}
	return &s.val, true
}

// Free returns the slot to the pool immediately.
func (a *Arena[T]) Free(id EntityID) bool {
	if !a.pool.Alive(id) {
		return false
	}
	s := a.slotAt(id.Index())
	if !s.used {
		return false
	}
	if r, ok := any(&s.val).(Resetter); ok {
		r.ResetForPool()
	} else {
		var zero T
		s.val = zero
	}
	s.used = false
	a.live--
	a.pool.Destroy(id)
	return true
}

// MarkForRemoval queues an id for FlushRemovals. Queuing twice is a no-op.
func (a *Arena[T]) MarkForRemoval(id EntityID) {
	if _, ok := a.queuedRemove[id]; ok {
		return
	}
	a.queuedRemove[id] = struct{}{}
	a.removeQueue = append(a.removeQueue, id)
}

// Pending reports whether id is queued for removal.
func (a *Arena[T]) Pending(id EntityID) bool {
	_, ok := a.queuedRemove[id]
	return ok
}

// FlushRemovals frees every queued id. beforeFree, if non-nil, sees each
// value before it is reset. Returns the number of slots freed.
func (a *Arena[T]) FlushRemovals(beforeFree func(EntityID, *T)) int {
	n := 0
	for _, id := range a.removeQueue {
		if beforeFree != nil {
			if v, ok := a.Get(id); ok {
				beforeFree(id, v)
			}
		}
		if a.Free(id) {
			n++
		}
		delete(a.queuedRemove, id)
	}
	a.removeQueue = a.removeQueue[:0]
	return n
}

// Each visits every allocated slot in index order. Returning false stops the
// walk. Slots allocated during the walk may or may not be visited.
func (a *Arena[T]) Each(fn func(EntityID, *T) bool) {
	limit := a.pool.Capacity()
	for idx := 0; idx < limit; idx++ {
		s := a.slotAt(uint32(idx))
		if !s.used {
			continue
		}
		id := NewEntityID(uint32(idx), a.pool.generations[idx])
		if !fn(id, &s.val) {
			return
		}
	}
}

// Len returns the number of allocated slots, including ones queued for removal.
func (a *Arena[T]) Len() int {
	return a.live
}
