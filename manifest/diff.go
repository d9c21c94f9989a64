package manifest

import "sort"

// ChangeKind classifies a difference between two manifests.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is a single difference between two manifests.
type Change struct {
	Kind ChangeKind
	Key  string
	Old  *Entry
	New  *Entry
}

// Diff compares the entries of two manifests by key. Entries present in both
// are reported as changed when their return type or signature differs.
func Diff(old, new *Manifest) []Change {
	before := indexEntries(old)
	after := indexEntries(new)

	var changes []Change
	for key, o := range before {
		n, ok := after[key]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Removed, Key: key, Old: o})
		case !sameEntry(*o, *n):
			changes = append(changes, Change{Kind: Changed, Key: key, Old: o, New: n})
		}
	}
	for key, n := range after {
		if _, ok := before[key]; !ok {
			changes = append(changes, Change{Kind: Added, Key: key, New: n})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

func indexEntries(m *Manifest) map[string]*Entry {
	out := make(map[string]*Entry)
	if m == nil {
		return out
	}
	for i := range m.Entries {
		out[m.Entries[i].Key()] = &m.Entries[i]
	}
	return out
}

func sameEntry(a, b Entry) bool {
	if !a.Marker().ReturnType.Equal(b.Marker().ReturnType) {
		return false
	}
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != b.Params[i].Type {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}
