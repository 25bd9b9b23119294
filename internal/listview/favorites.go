package listview

// Favoritable is implemented by items that can be ordered favorites-first.
// WithFavorite must return an annotated copy and leave the receiver untouched.
type Favoritable[T any] interface {
	FavoriteKey() string
	WithFavorite(isFavorite bool) T
}

// FavoriteSet is an immutable set of item identifiers marked as favorite by
// a viewer. A nil *FavoriteSet stands for an unknown viewer: nothing is a
// favorite.
type FavoriteSet struct {
	ids map[string]struct{}
}

// NewFavoriteSet creates a favorite set from the given identifiers.
func NewFavoriteSet(ids ...string) *FavoriteSet {
	set := &FavoriteSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is in the set. It is always false on a nil set.
func (s *FavoriteSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of identifiers in the set.
func (s *FavoriteSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Order returns annotated copies of items with every favorite ahead of every
// non-favorite. Relative order inside each group is preserved.
func Order[T Favoritable[T]](items []T, favorites *FavoriteSet) []T {
	out := make([]T, 0, len(items))
	var rest []T
	for _, item := range items {
		if favorites.Contains(item.FavoriteKey()) {
			out = append(out, item.WithFavorite(true))
			continue
		}
		rest = append(rest, item.WithFavorite(false))
	}
	return append(out, rest...)
}

// Orderer keeps the favorites-first derivation of a list up to date. It
// re-derives its output whenever the source list or the favorite set passed
// to Update differs by identity from the previous call.
type Orderer[T Favoritable[T]] struct {
	source    *List[T]
	favorites *FavoriteSet
	output    *List[T]
	primed    bool
}

// NewOrderer creates an Orderer with an empty output.
func NewOrderer[T Favoritable[T]]() *Orderer[T] {
	return &Orderer[T]{output: NewList[T](nil)}
}

// Update feeds the current inputs to the Orderer. It returns true when the
// output was replaced.
func (o *Orderer[T]) Update(source *List[T], favorites *FavoriteSet) bool {
	if o.primed && source == o.source && favorites == o.favorites {
		return false
	}

	o.source = source
	o.favorites = favorites
	o.primed = true

	var items []T
	if source != nil {
		items = source.items
	}
	o.output = &List[T]{items: Order(items, favorites)}

	return true
}

// Output returns the most recently derived list.
func (o *Orderer[T]) Output() *List[T] {
	return o.output
}
