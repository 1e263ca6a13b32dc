package scene

// Handle references an arena entry. A handle goes stale once its entry is
// erased: the slot's generation moves on and Get rejects the old handle.
type Handle struct {
	Index      uint32
	Generation uint32
}

type slot[K comparable, E any] struct {
	key        K
	value      *E
	generation uint32
	live       bool
}

// Arena owns entities keyed by a comparable identifier. Entities are
// allocated once per slot and reused after erase, so a pointer obtained from
// the arena stays valid until its key is erased.
//
// Arena is not safe for concurrent use; callers serialize access.
type Arena[K comparable, E any] struct {
	slots []slot[K, E]
	index map[K]uint32
	free  []uint32
}

// NewArena creates an empty arena.
func NewArena[K comparable, E any]() *Arena[K, E] {
	return &Arena[K, E]{index: make(map[K]uint32)}
}

// GetOrCreate returns the entity stored under k, creating a zero-valued one if
// absent. created reports whether the entity is new.
func (a *Arena[K, E]) GetOrCreate(k K) (h Handle, e *E, created bool) {
	if i, ok := a.index[k]; ok {
		s := &a.slots[i]
		return Handle{Index: i, Generation: s.generation}, s.value, false
	}

	var i uint32
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[K, E]{value: new(E)})
		i = uint32(len(a.slots) - 1)
	}

	s := &a.slots[i]
	s.key = k
	s.live = true
	a.index[k] = i
	return Handle{Index: i, Generation: s.generation}, s.value, true
}

// Find returns the entity stored under k.
func (a *Arena[K, E]) Find(k K) (*E, bool) {
	i, ok := a.index[k]
	if !ok {
		return nil, false
	}
	return a.slots[i].value, true
}

// Lookup returns the current handle of k.
func (a *Arena[K, E]) Lookup(k K) (Handle, bool) {
	i, ok := a.index[k]
	if !ok {
		return Handle{}, false
	}
	return Handle{Index: i, Generation: a.slots[i].generation}, true
}

// Get resolves a handle. Stale handles resolve to nothing.
func (a *Arena[K, E]) Get(h Handle) (*E, bool) {
	if int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil, false
	}
	return s.value, true
}

// Key returns the identifier a live handle refers to.
func (a *Arena[K, E]) Key(h Handle) (K, bool) {
	var zero K
	if int(h.Index) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return zero, false
	}
	return s.key, true
}

// Erase removes k and invalidates every handle to it. It reports whether k
// was present.
func (a *Arena[K, E]) Erase(k K) bool {
	i, ok := a.index[k]
	if !ok {
		return false
	}
	delete(a.index, k)

	s := &a.slots[i]
	var zeroKey K
	s.key = zeroKey
	s.live = false
	s.generation++
	*s.value = *new(E)
	a.free = append(a.free, i)
	return true
}

// ForEach visits live entities in slot order until fn returns false. fn must
// not create or erase entries.
func (a *Arena[K, E]) ForEach(fn func(k K, h Handle, e *E) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(s.key, Handle{Index: uint32(i), Generation: s.generation}, s.value) {
			return
		}
	}
}

// Keys returns the live keys in slot order.
func (a *Arena[K, E]) Keys() []K {
	keys := make([]K, 0, len(a.index))
	a.ForEach(func(k K, _ Handle, _ *E) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Len returns the number of live entities.
func (a *Arena[K, E]) Len() int {
	return len(a.index)
}
