// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("venue not found")
	ErrAlreadyExists = errors.New("venue already exists")
	ErrInvalidID     = errors.New("invalid ID")
	ErrNilVenue      = errors.New("venue cannot be nil")
	ErrEventNotFound = errors.New("event not found")
)

// VenueStore defines the interface for venue storage operations.
type VenueStore interface {
	// List returns all venues in insertion order.
	List(ctx context.Context) ([]model.Venue, error)

	// Get retrieves a venue by its ID.
	Get(ctx context.Context, id string) (*model.Venue, error)

	// Create adds a new venue. An ID is generated when the venue has none.
	Create(ctx context.Context, venue *model.Venue) (*model.Venue, error)

	// Update replaces an existing venue, keeping its position in the list.
	Update(ctx context.Context, id string, venue *model.Venue) (*model.Venue, error)

	// Delete removes a venue by its ID.
	Delete(ctx context.Context, id string) error

	// StarEvent marks an event of a venue as starred by userID and returns
	// the updated venue.
	StarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error)

	// UnstarEvent removes the star of userID from an event and returns the
	// updated venue.
	UnstarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error)
}

// ProfileStore defines the interface for viewer profile operations.
type ProfileStore interface {
	// GetProfile returns the profile of userID. Unknown users get an empty
	// profile.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)

	// AddFavorite adds venueID to the favorites of userID.
	AddFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error)

	// RemoveFavorite removes venueID from the favorites of userID.
	RemoveFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error)
}

// Store combines venue and profile storage.
type Store interface {
	VenueStore
	ProfileStore
}
