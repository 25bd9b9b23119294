package listview

// View chains an Orderer into a Paginator. The Paginator only ever sees the
// Orderer's complete output, so re-ordering always happens before
// re-pagination.
type View[T Favoritable[T]] struct {
	orderer   *Orderer[T]
	paginator *Paginator[T]
	perPage   int
}

// NewView creates a View over source using favorites for ordering.
func NewView[T Favoritable[T]](source *List[T], favorites *FavoriteSet, itemsPerPage int) *View[T] {
	v := &View[T]{
		orderer: NewOrderer[T](),
		perPage: normalizeItemsPerPage(itemsPerPage),
	}
	v.orderer.Update(source, favorites)
	v.paginator = NewPaginator(v.orderer.Output(), v.perPage)
	return v
}

// Refresh feeds new inputs through the Orderer and then the Paginator. It
// reports whether the Paginator was reset.
func (v *View[T]) Refresh(source *List[T], favorites *FavoriteSet) bool {
	v.orderer.Update(source, favorites)
	reset, _ := v.paginator.Sync(v.orderer.Output(), v.perPage)
	return reset
}

// Resize changes the page size. It reports whether the Paginator was reset.
func (v *View[T]) Resize(itemsPerPage int) bool {
	v.perPage = normalizeItemsPerPage(itemsPerPage)
	reset, _ := v.paginator.Sync(v.orderer.Output(), v.perPage)
	return reset
}

// Paginator exposes the navigation handle of the View.
func (v *View[T]) Paginator() *Paginator[T] {
	return v.paginator
}

// Ordered returns the full favorites-first list behind the View.
func (v *View[T]) Ordered() *List[T] {
	return v.orderer.Output()
}
