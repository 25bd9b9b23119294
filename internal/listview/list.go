// Package listview implements the presentation engine for browsable lists:
// a favorites-first ordering stage and a paginated, seekable cursor over an
// ordered list.
//
// Change detection is identity based. A *List is a snapshot; replacing it
// with a new *List (even one with identical content) is a change, while
// handing back the same pointer is not. The same applies to *FavoriteSet.
package listview

// List is an immutable snapshot of items. The pointer is the identity of the
// snapshot and is what the Orderer and the Paginator compare against.
type List[T any] struct {
	items []T
}

// NewList creates a new list snapshot holding a copy of items.
func NewList[T any](items []T) *List[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &List[T]{items: cp}
}

// Len returns the number of items in the list.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns a copy of the list items.
func (l *List[T]) Items() []T {
	if l == nil {
		return []T{}
	}
	cp := make([]T, len(l.items))
	copy(cp, l.items)
	return cp
}

// slice returns a copy of items in [lo, hi).
func (l *List[T]) slice(lo, hi int) []T {
	out := make([]T, hi-lo)
	copy(out, l.items[lo:hi])
	return out
}
