// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"

	"github.com/vyrodovalexey/venuelist/internal/listview"
)

// Validation errors for Venue.
var (
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrNameTooLong         = errors.New("name cannot exceed 255 characters")
	ErrDescriptionLimit    = errors.New("description cannot exceed 4000 characters")
	ErrEmptyEventID        = errors.New("event ID cannot be empty")
	ErrDuplicateEventID    = errors.New("event IDs must be unique within a venue")
	ErrEmptyEventName      = errors.New("event name cannot be empty")
	ErrInvalidItemsPerPage = errors.New("items per page must be between 0 and 100")
)

// Validation constants.
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 4000
	MaxItemsPerPage      = 100
)

// Event is a show happening at a venue.
type Event struct {
	ID        string    `json:"id" bson:"id" yaml:"id"`
	Name      string    `json:"name" bson:"name" yaml:"name"`
	URL       string    `json:"url,omitempty" bson:"url,omitempty" yaml:"url"`
	StartsAt  time.Time `json:"starts_at,omitempty" bson:"starts_at,omitempty" yaml:"starts_at"`
	StarredBy []string  `json:"starred_by" bson:"starred_by" yaml:"-"`
}

// IsStarredBy reports whether userID starred the event.
func (e Event) IsStarredBy(userID string) bool {
	for _, id := range e.StarredBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Venue is a place hosting events. IsFavorite is derived per viewer and is
// never persisted.
type Venue struct {
	ID             string    `json:"id" bson:"_id" yaml:"id"`
	Seq            int64     `json:"-" bson:"seq" yaml:"-"`
	Name           string    `json:"name" bson:"name" yaml:"name"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description"`
	Address        string    `json:"address,omitempty" bson:"address,omitempty" yaml:"address"`
	URL            string    `json:"url,omitempty" bson:"url,omitempty" yaml:"url"`
	UpcomingEvents []Event   `json:"upcoming_events" bson:"upcoming_events" yaml:"upcoming_events"`
	IsFavorite     bool      `json:"is_favorite" bson:"-" yaml:"-"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at" yaml:"-"`
}

// FavoriteKey returns the identifier used to match the venue against a
// viewer's favorites.
func (v Venue) FavoriteKey() string {
	return v.ID
}

// WithFavorite returns a copy of the venue with IsFavorite set.
func (v Venue) WithFavorite(isFavorite bool) Venue {
	v.IsFavorite = isFavorite
	return v
}

// Validate checks if the Venue has valid field values.
func (v *Venue) Validate() error {
	if v.Name == "" {
		return ErrEmptyName
	}

	if len(v.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	if len(v.Description) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}

	seen := make(map[string]bool, len(v.UpcomingEvents))
	for _, e := range v.UpcomingEvents {
		if e.ID == "" {
			return ErrEmptyEventID
		}
		if e.Name == "" {
			return ErrEmptyEventName
		}
		if seen[e.ID] {
			return ErrDuplicateEventID
		}
		seen[e.ID] = true
	}

	return nil
}

// Clone returns a deep copy of the venue.
func (v Venue) Clone() Venue {
	if v.UpcomingEvents == nil {
		return v
	}
	events := make([]Event, len(v.UpcomingEvents))
	for i, e := range v.UpcomingEvents {
		e.StarredBy = append([]string(nil), e.StarredBy...)
		events[i] = e
	}
	v.UpcomingEvents = events
	return v
}

// Profile is the viewer state persisted per user.
type Profile struct {
	UserID         string    `json:"user_id" bson:"_id"`
	FavoriteVenues []string  `json:"favorite_venues" bson:"favorite_venues"`
	UpdatedAt      time.Time `json:"updated_at,omitempty" bson:"updated_at"`
}

// Favorites returns the profile's favorite venues as a FavoriteSet. A nil
// profile yields a nil set.
func (p *Profile) Favorites() *listview.FavoriteSet {
	if p == nil {
		return nil
	}
	return listview.NewFavoriteSet(p.FavoriteVenues...)
}

// VenuePage is one page of favorites-first ordered venues.
type VenuePage = listview.Page[Venue]

// ViewState is the page a client view currently shows.
type ViewState struct {
	ViewID string `json:"view_id"`
	VenuePage
}

// ViewRequest is the body of a view creation request.
type ViewRequest struct {
	ItemsPerPage int `json:"items_per_page"`
}

// Validate checks the requested page size. Zero selects the default.
func (r *ViewRequest) Validate() error {
	if r.ItemsPerPage < 0 || r.ItemsPerPage > MaxItemsPerPage {
		return ErrInvalidItemsPerPage
	}
	return nil
}
