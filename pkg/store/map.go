package store

// Map is a keyed table whose writes are undone when the enclosing
// Journal.Atomic call fails.
//
// Values are stored as given. Slices and maps inside a value must be treated as
// immutable once inserted: clone them before changing and Insert the copy, or a
// rollback will restore a value that was modified in place.
type Map[K comparable, V any] struct {
	journal *Journal
	items   map[K]V
}

// NewMap creates a table bound to journal
func NewMap[K comparable, V any](journal *Journal) *Map[K, V] {
	return &Map[K, V]{
		journal: journal,
		items:   make(map[K]V),
	}
}

// Get returns the value stored under key
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

// GetOrZero returns the stored value or the zero value of V
func (m *Map[K, V]) GetOrZero(key K) V {
	return m.items[key]
}

// Contains reports whether key is present
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.items[key]
	return ok
}

// Insert stores value under key, replacing any previous value
func (m *Map[K, V]) Insert(key K, value V) {
	prev, existed := m.items[key]
	m.items[key] = value
	m.journal.record(func() {
		if existed {
			m.items[key] = prev
		} else {
			delete(m.items, key)
		}
	})
}

// Remove deletes key and returns the value it held
func (m *Map[K, V]) Remove(key K) (V, bool) {
	prev, existed := m.items[key]
	if !existed {
		return prev, false
	}
	delete(m.items, key)
	m.journal.record(func() {
		m.items[key] = prev
	})
	return prev, true
}

// Take removes key and returns its value or the zero value
func (m *Map[K, V]) Take(key K) V {
	v, _ := m.Remove(key)
	return v
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified. fn must not write to m.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

// RemoveIf deletes every entry matching pred and returns how many went
func (m *Map[K, V]) RemoveIf(pred func(K, V) bool) int {
	var doomed []K
	for k, v := range m.items {
		if pred(k, v) {
			doomed = append(doomed, k)
		}
	}
	for _, k := range doomed {
		m.Remove(k)
	}
	return len(doomed)
}

// Len returns the number of entries
func (m *Map[K, V]) Len() int {
	return len(m.items)
}

// Value is a single journaled cell
type Value[V any] struct {
	journal *Journal
	v       V
}

// NewValue creates a cell bound to journal holding initial
func NewValue[V any](journal *Journal, initial V) *Value[V] {
	return &Value[V]{journal: journal, v: initial}
}

// Get returns the current value
func (c *Value[V]) Get() V {
	return c.v
}

// Set replaces the current value
func (c *Value[V]) Set(v V) {
	prev := c.v
	c.v = v
	c.journal.record(func() {
		c.v = prev
	})
}
