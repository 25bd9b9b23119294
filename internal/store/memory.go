package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

// MemoryStore implements Store with in-memory storage.
type MemoryStore struct {
	mu       sync.RWMutex
	venues   map[string]model.Venue
	order    []string
	seq      int64
	profiles map[string]model.Profile
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		venues:   make(map[string]model.Venue),
		profiles: make(map[string]model.Profile),
	}
}

// List returns all venues in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Venue, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list venues: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	venues := make([]model.Venue, 0, len(s.order))
	for _, id := range s.order {
		venues = append(venues, s.venues[id].Clone())
	}

	return venues, nil
}

// Get retrieves a venue by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Venue, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get venue: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	venue, exists := s.venues[id]
	if !exists {
		return nil, ErrNotFound
	}

	venue = venue.Clone()
	return &venue, nil
}

// Create adds a new venue to the store.
func (s *MemoryStore) Create(ctx context.Context, venue *model.Venue) (*model.Venue, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create venue: %w", ctx.Err())
	default:
	}

	if venue == nil {
		return nil, ErrNilVenue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := venue.ID
	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := s.venues[id]; exists {
		return nil, ErrAlreadyExists
	}

	now := time.Now().UTC()
	s.seq++
	newVenue := venue.Clone()
	newVenue.ID = id
	newVenue.Seq = s.seq
	newVenue.IsFavorite = false
	newVenue.CreatedAt = now
	newVenue.UpdatedAt = now
	normalizeVenue(&newVenue)

	s.venues[id] = newVenue
	s.order = append(s.order, id)

	created := newVenue.Clone()
	return &created, nil
}

// Update replaces an existing venue.
func (s *MemoryStore) Update(ctx context.Context, id string, venue *model.Venue) (*model.Venue, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update venue: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if venue == nil {
		return nil, ErrNilVenue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.venues[id]
	if !exists {
		return nil, ErrNotFound
	}

	updated := venue.Clone()
	updated.ID = id
	updated.Seq = existing.Seq
	updated.IsFavorite = false
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	normalizeVenue(&updated)

	s.venues[id] = updated

	out := updated.Clone()
	return &out, nil
}

// Delete removes a venue from the store by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete venue: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.venues[id]; !exists {
		return ErrNotFound
	}

	delete(s.venues, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })

	return nil
}

// StarEvent marks an event as starred by userID.
func (s *MemoryStore) StarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error) {
	return s.updateStar(ctx, "star event", venueID, eventID, func(starredBy []string) []string {
		if slices.Contains(starredBy, userID) {
			return starredBy
		}
		return append(starredBy, userID)
	})
}

// UnstarEvent removes the star of userID from an event.
func (s *MemoryStore) UnstarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error) {
	return s.updateStar(ctx, "unstar event", venueID, eventID, func(starredBy []string) []string {
		return slices.DeleteFunc(starredBy, func(v string) bool { return v == userID })
	})
}

func (s *MemoryStore) updateStar(
	ctx context.Context,
	operation, venueID, eventID string,
	apply func([]string) []string,
) (*model.Venue, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", operation, ctx.Err())
	default:
	}

	if venueID == "" || eventID == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.venues[venueID]
	if !exists {
		return nil, ErrNotFound
	}

	venue := existing.Clone()
	idx := slices.IndexFunc(venue.UpcomingEvents, func(e model.Event) bool { return e.ID == eventID })
	if idx < 0 {
		return nil, ErrEventNotFound
	}

	venue.UpcomingEvents[idx].StarredBy = apply(venue.UpcomingEvents[idx].StarredBy)
	if venue.UpcomingEvents[idx].StarredBy == nil {
		venue.UpcomingEvents[idx].StarredBy = []string{}
	}
	venue.UpdatedAt = time.Now().UTC()
	s.venues[venueID] = venue

	out := venue.Clone()
	return &out, nil
}

// GetProfile returns the profile of userID.
func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get profile: %w", ctx.Err())
	default:
	}

	if userID == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.profileLocked(userID), nil
}

// AddFavorite adds venueID to the favorites of userID.
func (s *MemoryStore) AddFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	return s.updateFavorites(ctx, "add favorite", userID, venueID, func(ids []string) []string {
		if slices.Contains(ids, venueID) {
			return ids
		}
		return append(ids, venueID)
	})
}

// RemoveFavorite removes venueID from the favorites of userID.
func (s *MemoryStore) RemoveFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	return s.updateFavorites(ctx, "remove favorite", userID, venueID, func(ids []string) []string {
		return slices.DeleteFunc(ids, func(v string) bool { return v == venueID })
	})
}

func (s *MemoryStore) updateFavorites(
	ctx context.Context,
	operation, userID, venueID string,
	apply func([]string) []string,
) (*model.Profile, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", operation, ctx.Err())
	default:
	}

	if userID == "" || venueID == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.profileLocked(userID)
	profile.FavoriteVenues = apply(profile.FavoriteVenues)
	if profile.FavoriteVenues == nil {
		profile.FavoriteVenues = []string{}
	}
	profile.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = *profile

	out := *profile
	out.FavoriteVenues = slices.Clone(profile.FavoriteVenues)
	return &out, nil
}

// profileLocked returns a copy of the stored profile. Callers hold s.mu.
func (s *MemoryStore) profileLocked(userID string) *model.Profile {
	profile, exists := s.profiles[userID]
	if !exists {
		return &model.Profile{UserID: userID, FavoriteVenues: []string{}}
	}
	profile.FavoriteVenues = slices.Clone(profile.FavoriteVenues)
	return &profile
}
