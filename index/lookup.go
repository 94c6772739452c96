package index

import (
	"cmp"
	"slices"
)

// lookup resolves an identifier to a record position.
type lookup interface {
	find(id uint64) (int, bool)
}

// denseLookup serves indexes whose record i has identifier first+i.
type denseLookup struct {
	first uint64
	n     uint64
}

func (d denseLookup) find(id uint64) (int, bool) {
	if id < d.first || id-d.first >= d.n {
		return 0, false
	}
	return int(id - d.first), true
}

type idPos struct {
	id  uint64
	pos uint32
}

// sortedLookup is a table of (id, position) pairs sorted by id.
type sortedLookup struct {
	entries []idPos
}

func newSortedLookup(n int, idAt func(int) uint64) (sortedLookup, error) {
	entries := make([]idPos, n)
	for i := range entries {
		entries[i] = idPos{id: idAt(i), pos: uint32(i)}
	}
	slices.SortFunc(entries, func(a, b idPos) int { return cmp.Compare(a.id, b.id) })
	for i := 1; i < len(entries); i++ {
		if entries[i].id == entries[i-1].id {
			return sortedLookup{}, corrupt("duplicate identifier %d at records %d and %d",
				entries[i].id, entries[i-1].pos, entries[i].pos)
		}
	}
	return sortedLookup{entries: entries}, nil
}

func (s sortedLookup) find(id uint64) (int, bool) {
	i, ok := slices.BinarySearchFunc(s.entries, id, func(e idPos, id uint64) int { return cmp.Compare(e.id, id) })
	if !ok {
		return 0, false
	}
	return int(s.entries[i].pos), true
}
