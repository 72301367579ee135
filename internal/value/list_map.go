package value

import "strings"

// List is an ordered sequence of value containers (spec.md §3).
type List struct {
	Items []Container
}

func NewList(items ...Container) *List {
	return &List{Items: items}
}

func (l *List) Kind() CoreValueKind { return KindList }

func (l *List) String() string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Push(v Container) {
	l.Items = append(l.Items, v)
}

func (l *List) Len() int { return len(l.Items) }

func (l *List) Clone() *List {
	items := make([]Container, len(l.Items))
	copy(items, l.Items)
	return &List{Items: items}
}

// mapEntry is one insertion-ordered key/value pair of a Map.
type mapEntry struct {
	key Container
	val Container
}

// Map is an ordered, insertion-preserving key->value collection whose
// keys are themselves value containers (spec.md §3). Lookup is backed
// by a canonical-string index derived from structural equality so that
// two independently constructed but structurally equal keys collide,
// matching spec.md §4.A's structural-equality contract.
type Map struct {
	entries []mapEntry
	index   map[string]int
}

func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

func (m *Map) Kind() CoreValueKind { return KindMap }

func (m *Map) String() string {
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		parts = append(parts, e.key.String()+": "+e.val.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// canonicalKey produces a deterministic string for structural-equality
// based lookups. Reference keys are resolved to their current value
// first, matching ValueContainer's structural_eq collapsing behavior.
func canonicalKey(c Container) string {
	return c.Resolve().String()
}

// TrySet inserts or overwrites the entry for key, preserving the
// original insertion position on overwrite.
func (m *Map) TrySet(key, val Container) {
	ck := canonicalKey(key)
	if idx, ok := m.index[ck]; ok {
		m.entries[idx].val = val
		return
	}
	m.index[ck] = len(m.entries)
	m.entries = append(m.entries, mapEntry{key: key, val: val})
}

func (m *Map) Get(key Container) (Container, bool) {
	ck := canonicalKey(key)
	idx, ok := m.index[ck]
	if !ok {
		return nil, false
	}
	return m.entries[idx].val, true
}

// GetText is a convenience accessor for the common `foo.bar` /
// `foo."bar"` string-key case (spec.md §4.C).
func (m *Map) GetText(key string) (Container, bool) {
	return m.Get(ValueOf(Text(key)))
}

func (m *Map) Keys() []Container {
	keys := make([]Container, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

func (m *Map) Values() []Container {
	vals := make([]Container, len(m.entries))
	for i, e := range m.entries {
		vals[i] = e.val
	}
	return vals
}

func (m *Map) Len() int { return len(m.entries) }

func (m *Map) Clone() *Map {
	clone := NewMap()
	for _, e := range m.entries {
		clone.TrySet(e.key, e.val)
	}
	return clone
}
