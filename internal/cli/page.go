package cli

import (
	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
	"github.com/vyrodovalexey/venuelist/internal/store"
)

// viewFlags are the flags selecting the list a command pages through.
type viewFlags struct {
	favorites    []string
	itemsPerPage int
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.favorites, "favorites", "f", nil, "favorite venue IDs, listed first")
	cmd.Flags().IntVarP(&f.itemsPerPage, "per-page", "n", listview.DefaultItemsPerPage, "venues per page")
}

// loadVenues reads a seed file into a list snapshot.
func loadVenues(path string) (*listview.List[model.Venue], error) {
	venues, err := store.LoadSeed(path)
	if err != nil {
		return nil, err
	}
	return listview.NewList(venues), nil
}

func newPageCmd(opts *rootOptions) *cobra.Command {
	var (
		flags viewFlags
		page  int
	)

	cmd := &cobra.Command{
		Use:   "page <seed-file>",
		Short: "Print one page of a seed file, favorites first",
		Example: `  # Second page of 5, with two favorites pinned to the top
  venuectl page venues.yaml --per-page 5 --page 2 --favorites ritz,forum -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := loadVenues(args[0])
			if err != nil {
				return err
			}

			ordered := listview.NewList(listview.Order(list.Items(), listview.NewFavoriteSet(flags.favorites...)))
			result := listview.Paginate(ordered, flags.itemsPerPage, page)
			if result.CurrentPage != page {
				opts.logger.Info("requested page does not exist, showing the first page")
			}

			return writePages(cmd.OutOrStdout(), opts.output,
				[]pageOutput{newPageOutput(result)}, [][]model.Venue{result.Items})
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")

	return cmd
}
