package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// pageOutput is the structured form of one printed page.
type pageOutput struct {
	Step        string   `json:"step,omitempty" yaml:"step,omitempty"`
	Outcome     string   `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	CurrentPage int      `json:"current_page" yaml:"current_page"`
	NumPages    int      `json:"num_pages" yaml:"num_pages"`
	NumItems    int      `json:"num_items" yaml:"num_items"`
	Venues      []string `json:"venues" yaml:"venues"`
	Favorites   []string `json:"favorites,omitempty" yaml:"favorites,omitempty"`
}

func newPageOutput(page model.VenuePage) pageOutput {
	out := pageOutput{
		CurrentPage: page.CurrentPage,
		NumPages:    page.NumPages,
		NumItems:    page.NumItems,
		Venues:      make([]string, 0, len(page.Items)),
	}
	for _, v := range page.Items {
		out.Venues = append(out.Venues, v.ID)
		if v.IsFavorite {
			out.Favorites = append(out.Favorites, v.ID)
		}
	}
	return out
}

// writePages renders pages in the requested format.
func writePages(w io.Writer, format string, pages []pageOutput, items [][]model.Venue) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(pages) == 1 {
			return enc.Encode(pages[0])
		}
		return enc.Encode(pages)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if len(pages) == 1 {
			return enc.Encode(pages[0])
		}
		return enc.Encode(pages)
	default:
		for i, p := range pages {
			writeTextPage(w, p, items[i])
		}
		return nil
	}
}

func writeTextPage(w io.Writer, p pageOutput, items []model.Venue) {
	if p.Step != "" {
		fmt.Fprintf(w, "%s: %s\n", p.Step, p.Outcome)
	}
	fmt.Fprintf(w, "page %d/%d (%d venues)\n", p.CurrentPage, p.NumPages, p.NumItems)
	for _, v := range items {
		marker := " "
		if v.IsFavorite {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-12s %s\n", marker, v.ID, v.Name)
	}
}
