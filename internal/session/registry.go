// Package session keeps the per-client views: one favorites-first ordered,
// paginated view of the catalog per open client. Each view is refreshed
// when the catalog publishes a new list or new favorites for its viewer,
// and is otherwise moved only by navigation intents, applied one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/catalog"
	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
)

// Session errors.
var (
	ErrViewNotFound  = errors.New("view not found")
	ErrUnknownIntent = errors.New("unknown navigation intent")
)

// Registry owns the open views.
type Registry struct {
	catalog        *catalog.Catalog
	logger         *zap.Logger
	defaultPerPage int
	unsubscribe    func()

	mu    sync.RWMutex
	views map[string]*view
}

type view struct {
	id     string
	userID string

	mu        sync.Mutex
	lv        *listview.View[model.Venue]
	source    *listview.List[model.Venue]
	favorites *listview.FavoriteSet
	watchers  map[int]chan model.ViewState
	nextWatch int
}

// NewRegistry creates a Registry subscribed to c. defaultPerPage is used for
// views opened without an explicit page size.
func NewRegistry(c *catalog.Catalog, defaultPerPage int, logger *zap.Logger) *Registry {
	r := &Registry{
		catalog:        c,
		logger:         logger,
		defaultPerPage: defaultPerPage,
		views:          make(map[string]*view),
	}
	r.unsubscribe = c.Subscribe(r.onChange)
	return r
}

// Open creates a view for userID ("" for an anonymous viewer) positioned on
// the first page.
func (r *Registry) Open(ctx context.Context, userID string, itemsPerPage int) (model.ViewState, error) {
	if itemsPerPage <= 0 {
		itemsPerPage = r.defaultPerPage
	}

	var state model.ViewState
	err := r.catalog.WithState(ctx, userID, func(list *listview.List[model.Venue], favorites *listview.FavoriteSet) {
		v := &view{
			id:        uuid.New().String(),
			userID:    userID,
			lv:        listview.NewView(list, favorites, itemsPerPage),
			source:    list,
			favorites: favorites,
			watchers:  make(map[int]chan model.ViewState),
		}

		r.mu.Lock()
		r.views[v.id] = v
		r.mu.Unlock()

		state = v.stateLocked()
	})
	if err != nil {
		return model.ViewState{}, fmt.Errorf("opening view: %w", err)
	}

	viewsActive.Inc()
	r.logger.Debug("view opened",
		zap.String("view_id", state.ViewID),
		zap.String("user_id", userID),
		zap.Int("items_per_page", state.ItemsPerPage),
	)
	return state, nil
}

// State returns the current state of a view.
func (r *Registry) State(userID, viewID string) (model.ViewState, error) {
	v, err := r.lookup(userID, viewID)
	if err != nil {
		return model.ViewState{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.stateLocked(), nil
}

// Navigate applies a navigation intent to a view and returns its new state.
func (r *Registry) Navigate(userID, viewID string, intent model.ViewIntent) (model.ViewState, listview.Outcome, error) {
	v, err := r.lookup(userID, viewID)
	if err != nil {
		return model.ViewState{}, "", err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.lv.Paginator()
	var outcome listview.Outcome
	switch intent.Type {
	case model.IntentNext:
		outcome = p.NextPage()
	case model.IntentPrev:
		outcome = p.PrevPage()
	case model.IntentGoTo:
		outcome = p.GoToPage(intent.Page)
	case model.IntentResize:
		req := model.ViewRequest{ItemsPerPage: intent.ItemsPerPage}
		if err := req.Validate(); err != nil {
			return model.ViewState{}, "", err
		}
		perPage := intent.ItemsPerPage
		if perPage == 0 {
			perPage = r.defaultPerPage
		}
		outcome = listview.OutcomeNoop
		if v.lv.Resize(perPage) {
			outcome = listview.OutcomeApplied
			viewResetsTotal.WithLabelValues(resetReasonResize).Inc()
		}
	default:
		return model.ViewState{}, "", fmt.Errorf("%w: %q", ErrUnknownIntent, intent.Type)
	}

	navigationTotal.WithLabelValues(intent.Type, string(outcome)).Inc()

	state := v.stateLocked()
	if outcome == listview.OutcomeApplied {
		v.notifyLocked(state)
	}

	return state, outcome, nil
}

// Watch returns a channel receiving the view state after every change. Only
// the latest state is kept if the receiver falls behind. The channel is
// closed when the view is closed or stop is called.
func (r *Registry) Watch(userID, viewID string) (<-chan model.ViewState, func(), error) {
	v, err := r.lookup(userID, viewID)
	if err != nil {
		return nil, nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan model.ViewState, 1)
	id := v.nextWatch
	v.nextWatch++
	v.watchers[id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if c, ok := v.watchers[id]; ok {
				delete(v.watchers, id)
				close(c)
			}
		})
	}

	return ch, stop, nil
}

// Close removes a view.
func (r *Registry) Close(userID, viewID string) error {
	v, err := r.lookup(userID, viewID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.views[viewID] != v {
		r.mu.Unlock()
		return ErrViewNotFound
	}
	delete(r.views, viewID)
	r.mu.Unlock()

	v.mu.Lock()
	v.closeWatchersLocked()
	v.mu.Unlock()

	viewsActive.Dec()
	r.logger.Debug("view closed", zap.String("view_id", viewID))
	return nil
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}

// Shutdown detaches the registry from the catalog and closes every view.
func (r *Registry) Shutdown() {
	r.unsubscribe()

	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*view)
	r.mu.Unlock()

	for _, v := range views {
		v.mu.Lock()
		v.closeWatchersLocked()
		v.mu.Unlock()
		viewsActive.Dec()
	}
}

func (r *Registry) lookup(userID, viewID string) (*view, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.views[viewID]
	if !ok || v.userID != userID {
		return nil, ErrViewNotFound
	}
	return v, nil
}

// onChange runs under the catalog lock, so each view sees changes in
// publication order.
func (r *Registry) onChange(change catalog.Change) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.views {
		v.mu.Lock()

		reason := resetReasonList
		switch {
		case change.UserID == "":
			v.source = change.List
		case change.UserID == v.userID:
			v.favorites = change.Favorites
			reason = resetReasonFavorites
		default:
			v.mu.Unlock()
			continue
		}

		if v.lv.Refresh(v.source, v.favorites) {
			viewResetsTotal.WithLabelValues(reason).Inc()
			v.notifyLocked(v.stateLocked())
		}

		v.mu.Unlock()
	}
}

func (v *view) stateLocked() model.ViewState {
	return model.ViewState{
		ViewID:    v.id,
		VenuePage: v.lv.Paginator().Snapshot(),
	}
}

func (v *view) notifyLocked(state model.ViewState) {
	for _, ch := range v.watchers {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (v *view) closeWatchersLocked() {
	for id, ch := range v.watchers {
		delete(v.watchers, id)
		close(ch)
	}
}
