// Package catalog owns the current venue list and the viewers' favorites.
// Every mutation goes through the store and is then published as a new
// list snapshot or a new favorite set, so that subscribed views re-derive
// from post-mutation state only.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
	"github.com/vyrodovalexey/venuelist/internal/store"
)

// ErrAnonymous is returned for actions that need a signed-in viewer.
var ErrAnonymous = errors.New("action requires an authenticated viewer")

// Change is published after every successful mutation. A change with an
// empty UserID carries a new venue list; otherwise it carries the new
// favorites of UserID.
type Change struct {
	List      *listview.List[model.Venue]
	UserID    string
	Favorites *listview.FavoriteSet
}

// Catalog mediates between the store and the presentation views.
type Catalog struct {
	venues   store.VenueStore
	profiles store.ProfileStore
	logger   *zap.Logger
	locks    keyedMutex

	mu          sync.Mutex
	list        *listview.List[model.Venue]
	favorites   map[string]*listview.FavoriteSet
	subscribers map[int]func(Change)
	nextSubID   int
}

// New creates a Catalog backed by the given stores.
func New(venues store.VenueStore, profiles store.ProfileStore, logger *zap.Logger) *Catalog {
	return &Catalog{
		venues:      venues,
		profiles:    profiles,
		logger:      logger,
		locks:       keyedMutex{locks: make(map[string]*keyedLock)},
		favorites:   make(map[string]*listview.FavoriteSet),
		subscribers: make(map[int]func(Change)),
	}
}

// Subscribe registers fn to be called after every published change. fn runs
// while the catalog is locked and must not call back into the Catalog.
func (c *Catalog) Subscribe(fn func(Change)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// WithState calls fn with the current venue list and the favorites of
// userID. No change is published while fn runs.
func (c *Catalog) WithState(
	ctx context.Context,
	userID string,
	fn func(list *listview.List[model.Venue], favorites *listview.FavoriteSet),
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.listLocked(ctx)
	if err != nil {
		return err
	}

	favorites, err := c.favoritesLocked(ctx, userID)
	if err != nil {
		return err
	}

	fn(list, favorites)
	return nil
}

// Snapshot returns the current venue list.
func (c *Catalog) Snapshot(ctx context.Context) (*listview.List[model.Venue], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.listLocked(ctx)
}

// Favorites returns the favorite set of userID, nil for an anonymous viewer.
// The same set is returned until the viewer's favorites change.
func (c *Catalog) Favorites(ctx context.Context, userID string) (*listview.FavoriteSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.favoritesLocked(ctx, userID)
}

// Reload re-reads the venue list from the store and publishes it.
func (c *Catalog) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reloadLocked(ctx)
}

// Get returns a single venue annotated for userID.
func (c *Catalog) Get(ctx context.Context, userID, venueID string) (*model.Venue, error) {
	venue, err := c.venues.Get(ctx, venueID)
	if err != nil {
		return nil, err
	}

	favorites, err := c.Favorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	annotated := venue.WithFavorite(favorites.Contains(venue.ID))
	return &annotated, nil
}

// Profile returns the profile of userID.
func (c *Catalog) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}
	return c.profiles.GetProfile(ctx, userID)
}

// CreateVenue stores a new venue and publishes the new list.
func (c *Catalog) CreateVenue(ctx context.Context, venue *model.Venue) (*model.Venue, error) {
	created, err := c.venues.Create(ctx, venue)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.reloadLocked(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("venue created", zap.String("venue_id", created.ID))
	return created, nil
}

// UpdateVenue replaces a venue and publishes the new list.
func (c *Catalog) UpdateVenue(ctx context.Context, venueID string, venue *model.Venue) (*model.Venue, error) {
	return c.updateVenue(ctx, "venue:"+venueID, func() (*model.Venue, error) {
		return c.venues.Update(ctx, venueID, venue)
	})
}

// DeleteVenue removes a venue and publishes the new list.
func (c *Catalog) DeleteVenue(ctx context.Context, venueID string) error {
	if err := c.venues.Delete(ctx, venueID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.reloadLocked(ctx); err != nil {
		return err
	}

	c.logger.Info("venue deleted", zap.String("venue_id", venueID))
	return nil
}

// AddFavoriteVenue marks venueID as a favorite of userID.
func (c *Catalog) AddFavoriteVenue(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}

	if _, err := c.venues.Get(ctx, venueID); err != nil {
		return nil, err
	}

	return c.updateFavorites(ctx, userID, venueID, c.profiles.AddFavorite)
}

// RemoveFavoriteVenue unmarks venueID as a favorite of userID.
func (c *Catalog) RemoveFavoriteVenue(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}

	return c.updateFavorites(ctx, userID, venueID, c.profiles.RemoveFavorite)
}

func (c *Catalog) updateFavorites(
	ctx context.Context,
	userID, venueID string,
	apply func(ctx context.Context, userID, venueID string) (*model.Profile, error),
) (*model.Profile, error) {
	unlock := c.locks.Lock("favorite:" + userID + "/" + venueID)
	defer unlock()

	profile, err := apply(ctx, userID, venueID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Toggles of other venues may have landed since apply; publish what
	// the store holds now.
	current, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	favorites := current.Favorites()
	c.favorites[userID] = favorites
	c.publishLocked(Change{UserID: userID, Favorites: favorites})

	c.logger.Debug("favorites updated",
		zap.String("user_id", userID),
		zap.Int("favorites", favorites.Len()),
	)
	return profile, nil
}

// StarEvent stars an event for userID and publishes the updated list.
func (c *Catalog) StarEvent(ctx context.Context, userID, venueID, eventID string) (*model.Venue, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}

	return c.updateVenue(ctx, "event:"+venueID+"/"+eventID, func() (*model.Venue, error) {
		return c.venues.StarEvent(ctx, venueID, eventID, userID)
	})
}

// UnstarEvent removes the star of userID from an event and publishes the
// updated list.
func (c *Catalog) UnstarEvent(ctx context.Context, userID, venueID, eventID string) (*model.Venue, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}

	return c.updateVenue(ctx, "event:"+venueID+"/"+eventID, func() (*model.Venue, error) {
		return c.venues.UnstarEvent(ctx, venueID, eventID, userID)
	})
}

func (c *Catalog) updateVenue(ctx context.Context, key string, apply func() (*model.Venue, error)) (*model.Venue, error) {
	unlock := c.locks.Lock(key)
	defer unlock()

	venue, err := apply()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Other venue writes may have landed since apply, deletes included.
	if err := c.reloadLocked(ctx); err != nil {
		return nil, err
	}

	return venue, nil
}

func (c *Catalog) listLocked(ctx context.Context) (*listview.List[model.Venue], error) {
	if c.list != nil {
		return c.list, nil
	}

	venues, err := c.venues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading venues: %w", err)
	}

	c.list = listview.NewList(venues)
	return c.list, nil
}

func (c *Catalog) reloadLocked(ctx context.Context) error {
	venues, err := c.venues.List(ctx)
	if err != nil {
		return fmt.Errorf("reloading venues: %w", err)
	}

	c.list = listview.NewList(venues)
	c.publishLocked(Change{List: c.list})
	return nil
}

func (c *Catalog) favoritesLocked(ctx context.Context, userID string) (*listview.FavoriteSet, error) {
	if userID == "" {
		return nil, nil
	}

	if favorites, ok := c.favorites[userID]; ok {
		return favorites, nil
	}

	profile, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	favorites := profile.Favorites()
	c.favorites[userID] = favorites
	return favorites, nil
}

func (c *Catalog) publishLocked(change Change) {
	for _, fn := range c.subscribers {
		fn(change)
	}
}
