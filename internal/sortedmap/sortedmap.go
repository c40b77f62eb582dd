// Package sortedmap implements an ordered key→value container with
// order-statistics queries (rank-of, nth) that the orderbook and the
// candle chart build on. No third-party ordered
// container in the reference corpus (tidwall/btree, google/btree,
// huandu/skiplist) exposes a rank/nth API, so this is built directly on
// a maintained-sorted slice plus binary search — see DESIGN.md.
package sortedmap

import "sort"

// Test selects the comparison used by Nearest.
type Test int

const (
	Less Test = iota
	LessOrEqual
	GreaterOrEqual
	Greater
)

type entry[K, V any] struct {
	key K
	val V
}

// Map is an ordered map over keys of type K with a supplied comparator.
// Not safe for concurrent use; callers needing concurrency guard it
// themselves (the candle chart does, via its own mutex).
type Map[K, V any] struct {
	less    func(a, b K) bool
	entries []entry[K, V]
}

// New builds an empty Map ordered by less.
func New[K, V any](less func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{less: less}
}

func (m *Map[K, V]) search(key K) int {
	return sort.Search(len(m.entries), func(i int) bool {
		return !m.less(m.entries[i].key, key)
	})
}

// Set inserts or updates the value at key. O(log n) search, O(n) worst
// case shift on insert.
func (m *Map[K, V]) Set(key K, val V) {
	i := m.search(key)
	if i < len(m.entries) && !m.less(key, m.entries[i].key) {
		m.entries[i].val = val
		return
	}
	m.entries = append(m.entries, entry[K, V]{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = entry[K, V]{key: key, val: val}
}

// Get returns the value at key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	i := m.search(key)
	if i < len(m.entries) && !m.less(key, m.entries[i].key) {
		return m.entries[i].val, true
	}
	var zero V
	return zero, false
}

// Delete removes key if present.
func (m *Map[K, V]) Delete(key K) {
	i := m.search(key)
	if i < len(m.entries) && !m.less(key, m.entries[i].key) {
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.entries) }

// RankOf returns the zero-based index of key in ascending order, or -1.
func (m *Map[K, V]) RankOf(key K) int {
	i := m.search(key)
	if i < len(m.entries) && !m.less(key, m.entries[i].key) {
		return i
	}
	return -1
}

// Nth returns the key/value at the given rank.
func (m *Map[K, V]) Nth(n int) (K, V, bool) {
	if n < 0 || n >= len(m.entries) {
		var k K
		var v V
		return k, v, false
	}
	e := m.entries[n]
	return e.key, e.val, true
}

// First returns the smallest entry.
func (m *Map[K, V]) First() (K, V, bool) { return m.Nth(0) }

// Last returns the largest entry.
func (m *Map[K, V]) Last() (K, V, bool) { return m.Nth(len(m.entries) - 1) }

// Nearest returns the entry satisfying the comparison test relative to
// key, closest to key. For Less/LessOrEqual it scans from the insertion
// point backward; for GreaterOrEqual/Greater it scans forward.
func (m *Map[K, V]) Nearest(test Test, key K) (K, V, bool) {
	i := m.search(key)
	switch test {
	case Less:
		if i > 0 {
			return m.entries[i-1].key, m.entries[i-1].val, true
		}
	case LessOrEqual:
		if i < len(m.entries) && !m.less(key, m.entries[i].key) {
			return m.entries[i].key, m.entries[i].val, true
		}
		if i > 0 {
			return m.entries[i-1].key, m.entries[i-1].val, true
		}
	case GreaterOrEqual:
		if i < len(m.entries) {
			return m.entries[i].key, m.entries[i].val, true
		}
	case Greater:
		if i < len(m.entries) && !m.less(key, m.entries[i].key) {
			i++
		}
		if i < len(m.entries) {
			return m.entries[i].key, m.entries[i].val, true
		}
	}
	var k K
	var v V
	return k, v, false
}

// Subrange returns a copy of all entries between from/to under the given
// tests (LessOrEqual/GreaterOrEqual are inclusive, Less/Greater exclusive).
func (m *Map[K, V]) Subrange(from K, fromTest Test, to K, toTest Test) []struct {
	Key K
	Val V
} {
	start := m.search(from)
	if fromTest == Greater {
		for start < len(m.entries) && !m.less(from, m.entries[start].key) {
			start++
		}
	}
	end := m.search(to)
	if toTest == LessOrEqual {
		for end < len(m.entries) && !m.less(to, m.entries[end].key) {
			end++
		}
	}
	out := make([]struct {
		Key K
		Val V
	}, 0, end-start)
	for i := start; i < end && i < len(m.entries); i++ {
		if i < 0 {
			continue
		}
		out = append(out, struct {
			Key K
			Val V
		}{m.entries[i].key, m.entries[i].val})
	}
	return out
}

// Tail returns the last n entries (fewer if the map is shorter) in the
// map's key order. Used by callers (e.g. a candle chart) that want the
// most recent n keys.
func (m *Map[K, V]) Tail(n int) []struct {
	Key K
	Val V
} {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	start := len(m.entries) - n
	out := make([]struct {
		Key K
		Val V
	}, 0, n)
	for i := start; i < len(m.entries); i++ {
		out = append(out, struct {
			Key K
			Val V
		}{m.entries[i].key, m.entries[i].val})
	}
	return out
}

// TailUntil returns up to n entries strictly less than key, most-recent
// (largest key) first.
func (m *Map[K, V]) TailUntil(key K, n int) []struct {
	Key K
	Val V
} {
	i := m.search(key)
	out := make([]struct {
		Key K
		Val V
	}, 0, n)
	for i = i - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, struct {
			Key K
			Val V
		}{m.entries[i].key, m.entries[i].val})
	}
	return out
}
