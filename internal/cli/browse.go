package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/listview"
	"github.com/vyrodovalexey/venuelist/internal/model"
)

// Browse steps.
const (
	stepNext       = "next"
	stepPrev       = "prev"
	stepGoTo       = "goto"
	stepResize     = "resize"
	stepFavorite   = "favorite"
	stepUnfavorite = "unfavorite"
)

// browseStep is one parsed step argument, e.g. "goto:3" or "favorite:ritz".
type browseStep struct {
	raw   string
	kind  string
	page  int
	venue string
}

func parseStep(raw string) (browseStep, error) {
	kind, arg, hasArg := strings.Cut(raw, ":")
	step := browseStep{raw: raw, kind: kind}

	switch kind {
	case stepNext, stepPrev:
		if hasArg {
			return step, fmt.Errorf("step %q takes no argument", raw)
		}
	case stepGoTo, stepResize:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return step, fmt.Errorf("step %q needs a number: %w", raw, err)
		}
		step.page = n
	case stepFavorite, stepUnfavorite:
		if arg == "" {
			return step, fmt.Errorf("step %q needs a venue ID", raw)
		}
		step.venue = arg
	default:
		return step, fmt.Errorf("unknown step %q", raw)
	}

	return step, nil
}

// browser replays steps against a view, the way a client session would.
type browser struct {
	source    *listview.List[model.Venue]
	favorites []string
	view      *listview.View[model.Venue]
	logger    *zap.Logger
}

func newBrowser(source *listview.List[model.Venue], favorites []string, itemsPerPage int, logger *zap.Logger) *browser {
	return &browser{
		source:    source,
		favorites: favorites,
		view:      listview.NewView(source, listview.NewFavoriteSet(favorites...), itemsPerPage),
		logger:    logger,
	}
}

func (b *browser) apply(step browseStep) listview.Outcome {
	p := b.view.Paginator()

	var outcome listview.Outcome
	switch step.kind {
	case stepNext:
		outcome = p.Dispatch(listview.Action[model.Venue]{Type: listview.ActionNextPage})
	case stepPrev:
		outcome = p.Dispatch(listview.Action[model.Venue]{Type: listview.ActionPrevPage})
	case stepGoTo:
		outcome = p.Dispatch(listview.Action[model.Venue]{Type: listview.ActionGoToPage, Page: step.page})
	case stepResize:
		outcome = listview.OutcomeNoop
		if b.view.Resize(step.page) {
			outcome = listview.OutcomeApplied
		}
	case stepFavorite, stepUnfavorite:
		b.favorites = toggle(b.favorites, step.venue, step.kind == stepFavorite)
		outcome = listview.OutcomeNoop
		if b.view.Refresh(b.source, listview.NewFavoriteSet(b.favorites...)) {
			outcome = listview.OutcomeApplied
		}
	}

	b.logger.Debug("step applied",
		zap.String("step", step.raw),
		zap.String("outcome", string(outcome)),
		zap.Int("page", p.CurrentPage()),
	)
	return outcome
}

func toggle(ids []string, id string, on bool) []string {
	out := make([]string, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if on {
		out = append(out, id)
	}
	return out
}

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "browse <seed-file> [step...]",
		Short: "Replay navigation steps and print the page after each",
		Long: `Replays navigation steps against a favorites-first view of a seed file.

Steps:
  next, prev           move one page
  goto:N               jump to page N
  resize:N             show N venues per page (back to page 1)
  favorite:ID          mark a venue as favorite (back to page 1)
  unfavorite:ID        unmark a venue (back to page 1)`,
		Example: `  venuectl browse venues.yaml next next favorite:ritz goto:2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]browseStep, 0, len(args)-1)
			for _, raw := range args[1:] {
				step, err := parseStep(raw)
				if err != nil {
					return err
				}
				steps = append(steps, step)
			}

			source, err := loadVenues(args[0])
			if err != nil {
				return err
			}

			b := newBrowser(source, flags.favorites, flags.itemsPerPage, opts.logger)
			initial := b.view.Paginator().Snapshot()
			pages := []pageOutput{newPageOutput(initial)}
			items := [][]model.Venue{initial.Items}

			for _, step := range steps {
				outcome := b.apply(step)
				snap := b.view.Paginator().Snapshot()

				out := newPageOutput(snap)
				out.Step, out.Outcome = step.raw, string(outcome)
				pages = append(pages, out)
				items = append(items, snap.Items)
			}

			return writePages(cmd.OutOrStdout(), opts.output, pages, items)
		},
	}

	flags.register(cmd)
	return cmd
}
