// Package reconcile computes the minimal set of changes that turns one
// displayed list into another, keyed by entity identity.
package reconcile

import "sort"

// Removal is an item present only in the old list.
type Removal[K comparable] struct {
	Key      K
	OldIndex int
}

// Placement is an item that must appear at Index in the new list.
type Placement[T any] struct {
	Index int
	Item  T
}

// Move is a surviving item whose position relative to the other survivors
// changed.
type Move[K comparable] struct {
	Key      K
	OldIndex int
	NewIndex int
}

type Result[T any, K comparable] struct {
	Removed  []Removal[K]
	Inserted []Placement[T]
	// Updated holds items whose key survived but whose content differs.
	Updated []Placement[T]
	Moved   []Move[K]
	// IsEmpty reports that the new list has no items.
	IsEmpty bool
}

// Changed is false only when the old and new lists are identical.
func (r Result[T, K]) Changed() bool {
	return len(r.Removed)+len(r.Inserted)+len(r.Updated)+len(r.Moved) > 0
}

// Diff compares old and new. Items are matched by key; equal decides
// whether a matched item changed. When a key occurs more than once in a
// list only the first occurrence is matched, later ones are treated as
// unrelated items. Neither input is modified.
func Diff[T any, K comparable](old, new []T, key func(T) K, equal func(a, b T) bool) Result[T, K] {
	res := Result[T, K]{IsEmpty: len(new) == 0}

	oldIndex := make(map[K]int, len(old))
	for i, item := range old {
		k := key(item)
		if _, dup := oldIndex[k]; !dup {
			oldIndex[k] = i
		}
	}

	// matched[i] is the old index of new[i], or -1.
	matched := make([]int, len(new))
	claimed := make([]bool, len(old))
	for i, item := range new {
		matched[i] = -1
		j, ok := oldIndex[key(item)]
		if !ok || claimed[j] {
			res.Inserted = append(res.Inserted, Placement[T]{Index: i, Item: item})
			continue
		}
		claimed[j] = true
		matched[i] = j
		if !equal(old[j], item) {
			res.Updated = append(res.Updated, Placement[T]{Index: i, Item: item})
		}
	}

	for j, item := range old {
		if !claimed[j] {
			res.Removed = append(res.Removed, Removal[K]{Key: key(item), OldIndex: j})
		}
	}

	// Survivors on a longest increasing run of old positions stay put;
	// every other survivor moved.
	survivors := make([]int, 0, len(new))
	for i, j := range matched {
		if j >= 0 {
			survivors = append(survivors, i)
		}
	}
	positions := make([]int, len(survivors))
	for n, i := range survivors {
		positions[n] = matched[i]
	}
	stay := longestIncreasing(positions)
	for n, i := range survivors {
		if !stay[n] {
			res.Moved = append(res.Moved, Move[K]{Key: key(new[i]), OldIndex: matched[i], NewIndex: i})
		}
	}

	return res
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	in := make([]bool, len(seq))
	if len(seq) == 0 {
		return in
	}
	// tails[l] is the index in seq of the smallest tail of a run of length l+1.
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		l := sort.Search(len(tails), func(n int) bool { return seq[tails[n]] >= v })
		if l > 0 {
			prev[i] = tails[l-1]
		} else {
			prev[i] = -1
		}
		if l == len(tails) {
			tails = append(tails, i)
		} else {
			tails[l] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		in[i] = true
	}
	return in
}

// Apply rebuilds the new list from old and a result produced by Diff on
// the same old list.
func Apply[T any, K comparable](old []T, res Result[T, K], key func(T) K) []T {
	size := len(old) - len(res.Removed) + len(res.Inserted)
	if size <= 0 {
		return []T{}
	}
	out := make([]T, size)
	filled := make([]bool, size)

	place := func(i int, item T) {
		out[i] = item
		filled[i] = true
	}
	for _, p := range res.Inserted {
		place(p.Index, p.Item)
	}
	for _, p := range res.Updated {
		place(p.Index, p.Item)
	}

	skip := make([]bool, len(old))
	for _, r := range res.Removed {
		skip[r.OldIndex] = true
	}
	for _, m := range res.Moved {
		skip[m.OldIndex] = true
		if !filled[m.NewIndex] {
			place(m.NewIndex, old[m.OldIndex])
		}
	}
	// Updated survivors already sit at their new index. Only first
	// occurrences of a key survive, so the key finds their old slot.
	updatedKeys := make(map[K]struct{}, len(res.Updated))
	for _, p := range res.Updated {
		updatedKeys[key(p.Item)] = struct{}{}
	}
	for j, item := range old {
		if skip[j] {
			continue
		}
		if _, ok := updatedKeys[key(item)]; ok {
			skip[j] = true
		}
	}

	next := 0
	for j, item := range old {
		if skip[j] {
			continue
		}
		for next < size && filled[next] {
			next++
		}
		if next == size {
			break
		}
		place(next, item)
	}
	return out
}
