package listview

import (
	"errors"
	"fmt"
)

// DefaultItemsPerPage is used when a non-positive page size is requested.
const DefaultItemsPerPage = 10

// ErrInvalidList is returned when a reset is attempted without a list.
var ErrInvalidList = errors.New("source list is required")

// ActionType tags a Paginator transition.
type ActionType string

// Paginator transitions.
const (
	ActionReset    ActionType = "reset"
	ActionNextPage ActionType = "next_page"
	ActionPrevPage ActionType = "prev_page"
	ActionGoToPage ActionType = "go_to_page"
)

// Action is a tagged transition request for a Paginator. List and
// ItemsPerPage are read by ActionReset, Page by ActionGoToPage.
type Action[T any] struct {
	Type         ActionType
	List         *List[T]
	ItemsPerPage int
	Page         int
}

// Outcome describes what a dispatched action did to the state.
type Outcome string

// Action outcomes.
const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoop     Outcome = "noop"
	OutcomeRejected Outcome = "rejected"
)

// Metadata holds the derived counters of a Paginator.
type Metadata struct {
	NumItems     int `json:"num_items"`
	NumPages     int `json:"num_pages"`
	ItemsPerPage int `json:"items_per_page"`
}

// Page is a point-in-time copy of the paginator state.
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	Metadata
}

// Paginator serves one page at a time out of a list snapshot.
//
// State invariants:
//   - NumPages is ceil(NumItems/ItemsPerPage) and 0 only for an empty list.
//   - 1 <= CurrentPage <= max(NumPages, 1).
//   - CurrentItems is the contiguous slice of the list covering CurrentPage.
type Paginator[T any] struct {
	list         *List[T]
	itemsPerPage int
	numItems     int
	numPages     int
	currentPage  int
	currentItems []T
}

// NewPaginator creates a Paginator positioned on the first page of list.
// A nil list is treated as empty.
func NewPaginator[T any](list *List[T], itemsPerPage int) *Paginator[T] {
	if list == nil {
		list = NewList[T](nil)
	}
	p := &Paginator[T]{}
	p.reset(list, itemsPerPage)
	return p
}

// Paginate returns the requested page of list in one shot. An out-of-range
// page leaves the cursor on the first page.
func Paginate[T any](list *List[T], itemsPerPage, page int) Page[T] {
	p := NewPaginator(list, itemsPerPage)
	p.GoToPage(page)
	return p.Snapshot()
}

// Dispatch applies a tagged action. Navigation past either end and jumps to
// pages that do not exist leave the state untouched. An unknown action type
// is a programming error and panics.
func (p *Paginator[T]) Dispatch(action Action[T]) Outcome {
	switch action.Type {
	case ActionReset:
		if action.List == nil {
			return OutcomeRejected
		}
		p.reset(action.List, action.ItemsPerPage)
		return OutcomeApplied
	case ActionNextPage:
		if p.currentPage >= p.numPages {
			return OutcomeNoop
		}
		p.setPage(p.currentPage + 1)
		return OutcomeApplied
	case ActionPrevPage:
		if p.currentPage <= 1 {
			return OutcomeNoop
		}
		p.setPage(p.currentPage - 1)
		return OutcomeApplied
	case ActionGoToPage:
		if action.Page < 1 || action.Page > p.numPages {
			return OutcomeRejected
		}
		p.setPage(action.Page)
		return OutcomeApplied
	default:
		panic(fmt.Sprintf("listview: invalid paginator action type %q", action.Type))
	}
}

// Sync resets the Paginator to the first page of list when list or the page
// size differ from the current ones. It reports whether a reset happened.
// A nil list is rejected and the current state kept.
func (p *Paginator[T]) Sync(list *List[T], itemsPerPage int) (bool, error) {
	if list == nil {
		return false, ErrInvalidList
	}
	if list == p.list && normalizeItemsPerPage(itemsPerPage) == p.itemsPerPage {
		return false, nil
	}
	p.Dispatch(Action[T]{Type: ActionReset, List: list, ItemsPerPage: itemsPerPage})
	return true, nil
}

// NextPage moves to the following page if there is one.
func (p *Paginator[T]) NextPage() Outcome {
	return p.Dispatch(Action[T]{Type: ActionNextPage})
}

// PrevPage moves to the preceding page if there is one.
func (p *Paginator[T]) PrevPage() Outcome {
	return p.Dispatch(Action[T]{Type: ActionPrevPage})
}

// GoToPage jumps to page n (1-indexed). Out-of-range pages are rejected.
func (p *Paginator[T]) GoToPage(n int) Outcome {
	return p.Dispatch(Action[T]{Type: ActionGoToPage, Page: n})
}

// CurrentPage returns the 1-indexed current page.
func (p *Paginator[T]) CurrentPage() int {
	return p.currentPage
}

// CurrentItems returns a copy of the items on the current page.
func (p *Paginator[T]) CurrentItems() []T {
	out := make([]T, len(p.currentItems))
	copy(out, p.currentItems)
	return out
}

// Metadata returns the derived counters.
func (p *Paginator[T]) Metadata() Metadata {
	return Metadata{
		NumItems:     p.numItems,
		NumPages:     p.numPages,
		ItemsPerPage: p.itemsPerPage,
	}
}

// Source returns the list the Paginator is currently positioned over.
func (p *Paginator[T]) Source() *List[T] {
	return p.list
}

// Snapshot returns a copy of the current state.
func (p *Paginator[T]) Snapshot() Page[T] {
	return Page[T]{
		Items:       p.CurrentItems(),
		CurrentPage: p.currentPage,
		HasNext:     p.currentPage < p.numPages,
		HasPrev:     p.currentPage > 1,
		Metadata:    p.Metadata(),
	}
}

func (p *Paginator[T]) reset(list *List[T], itemsPerPage int) {
	p.list = list
	p.itemsPerPage = normalizeItemsPerPage(itemsPerPage)
	p.numItems = list.Len()
	p.numPages = (p.numItems + p.itemsPerPage - 1) / p.itemsPerPage
	p.setPage(1)
}

func (p *Paginator[T]) setPage(page int) {
	p.currentPage = page
	p.currentItems = p.itemsForPage(page)
}

// itemsForPage returns the items at [(page-1)*n, min(page*n, numItems)).
func (p *Paginator[T]) itemsForPage(page int) []T {
	first := (page - 1) * p.itemsPerPage
	if first >= p.numItems {
		return []T{}
	}
	return p.list.slice(first, min(first+p.itemsPerPage, p.numItems))
}

func normalizeItemsPerPage(n int) int {
	if n <= 0 {
		return DefaultItemsPerPage
	}
	return n
}
