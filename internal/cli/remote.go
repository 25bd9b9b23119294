package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/auth"
	"github.com/vyrodovalexey/venuelist/internal/model"
)

// remoteTimeout bounds a request to the server.
const remoteTimeout = 10 * time.Second

func newRemoteCmd(opts *rootOptions) *cobra.Command {
	var (
		server       string
		apiKey       string
		page         int
		itemsPerPage int
	)

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Print one page of the venue list served by a running server",
		Example: `  # Page 2 as the viewer owning the key
  venuectl remote --server http://localhost:8080 --api-key secret --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoint, err := url.Parse(strings.TrimRight(server, "/") + "/api/v1/venues")
			if err != nil {
				return fmt.Errorf("invalid server URL: %w", err)
			}
			query := endpoint.Query()
			query.Set("page", strconv.Itoa(page))
			if itemsPerPage > 0 {
				query.Set("per_page", strconv.Itoa(itemsPerPage))
			}
			endpoint.RawQuery = query.Encode()

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint.String(), nil)
			if err != nil {
				return err
			}
			if apiKey != "" {
				req.Header.Set(auth.APIKeyHeader, apiKey)
			}

			opts.logger.Debug("requesting venues", zap.String("url", endpoint.String()))

			client := &http.Client{Timeout: remoteTimeout}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("requesting venues: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				var apiErr model.ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
					return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Message)
				}
				return fmt.Errorf("server returned %d", resp.StatusCode)
			}

			var body model.APIResponse[model.VenuePage]
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}

			return writePages(cmd.OutOrStdout(), opts.output,
				[]pageOutput{newPageOutput(body.Data)}, [][]model.Venue{body.Data.Items})
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key identifying the viewer")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&itemsPerPage, "per-page", "n", 0, "venues per page (server default when 0)")

	return cmd
}
