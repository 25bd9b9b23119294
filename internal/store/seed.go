package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

// SeedFile is the layout of a venue seed file.
type SeedFile struct {
	Venues []model.Venue `yaml:"venues"`
}

// LoadSeed reads and validates a YAML venue seed file.
func LoadSeed(path string) ([]model.Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	return ParseSeed(data)
}

// ParseSeed decodes and validates YAML seed data.
func ParseSeed(data []byte) ([]model.Venue, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i := range seed.Venues {
		if err := seed.Venues[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed venue %d (%q): %w", i, seed.Venues[i].Name, err)
		}
	}

	return seed.Venues, nil
}

// Seed inserts venues into s, skipping those whose ID already exists. It
// returns the number of venues created.
func Seed(ctx context.Context, s VenueStore, venues []model.Venue) (int, error) {
	created := 0
	for i := range venues {
		if _, err := s.Create(ctx, &venues[i]); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seeding venue %q: %w", venues[i].Name, err)
		}
		created++
	}

	return created, nil
}
