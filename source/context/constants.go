package context

import (
	"iter"
	"strings"

	"github.com/martin-dore/dace/source/values"
)

// The ConstantMap is the flat per-request store of defined constants. It is
// separate from the symbol overlay because constants have simpler identity:
// no overloads, no inheritance, and redefinition is a no-op rather than a
// conflict.
//
// Case-sensitive and case-insensitive constants coexist: each entry carries
// its own insensitivity flag, and nothing is normalized destructively, so a
// case-insensitive 'foo' can live alongside a case-sensitive 'FOO'.
type ConstantMap struct {
	entries []constEntry
	exact   map[string]int // case-sensitive names
	folded  map[string]int // case-insensitive names, keyed lowercased
}

type constEntry struct {
	name  string
	value values.Value
	ci    bool
}

func NewConstantMap() *ConstantMap {
	return &ConstantMap{exact: make(map[string]int), folded: make(map[string]int)}
}

// Define creates the constant and returns true, or returns false if it was
// already defined, in which case the stored value is untouched.
func (cm *ConstantMap) Define(name string, v values.Value, caseInsensitive bool) bool {
	if _, ok := cm.lookup(name); ok {
		return false
	}
	index := len(cm.entries)
	cm.entries = append(cm.entries, constEntry{name, v, caseInsensitive})
	if caseInsensitive {
		cm.folded[strings.ToLower(name)] = index
	} else {
		cm.exact[name] = index
	}
	return true
}

func (cm *ConstantMap) TryGet(name string) (values.Value, bool) {
	index, ok := cm.lookup(name)
	if !ok {
		return values.Value{}, false
	}
	return cm.entries[index].value, true
}

// TryGetCached is TryGet with an index cache: if *cachedIndex still names the
// entry for this name we skip the map lookups entirely, and otherwise we do a
// full lookup and write the resolved index back for next time. A stale or
// nonsense index is detected, never trusted.
func (cm *ConstantMap) TryGetCached(name string, cachedIndex *int) (values.Value, bool) {
	if i := *cachedIndex; i >= 0 && i < len(cm.entries) && cm.entryMatches(i, name) {
		return cm.entries[i].value, true
	}
	index, ok := cm.lookup(name)
	if !ok {
		return values.Value{}, false
	}
	*cachedIndex = index
	return cm.entries[index].value, true
}

func (cm *ConstantMap) IsDefined(name string) bool {
	_, ok := cm.lookup(name)
	return ok
}

// Enumerate yields (name, value) pairs in insertion order.
func (cm *ConstantMap) Enumerate() iter.Seq2[string, values.Value] {
	return func(yield func(string, values.Value) bool) {
		for _, e := range cm.entries {
			if !yield(e.name, e.value) {
				return
			}
		}
	}
}

func (cm *ConstantMap) Count() int {
	return len(cm.entries)
}

func (cm *ConstantMap) lookup(name string) (int, bool) {
	if index, ok := cm.exact[name]; ok {
		return index, true
	}
	index, ok := cm.folded[strings.ToLower(name)]
	return index, ok
}

func (cm *ConstantMap) entryMatches(index int, name string) bool {
	e := cm.entries[index]
	if e.ci {
		return strings.EqualFold(e.name, name)
	}
	return e.name == name
}
