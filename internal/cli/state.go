package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const stateTimeout = 10 * time.Second

// newStateCmd creates the state subcommand, which queries a running daemon's
// diagnostic endpoint and prints the recency-ordered client list.
func newStateCmd(cfg Config) *cobra.Command {
	var (
		flagAddr   string
		flagFormat string
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the recency-ordered client list of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "json" && flagFormat != "text" {
				return fmt.Errorf("unknown format: %s", flagFormat)
			}
			return fetchState(os.Stdout, flagAddr, flagFormat)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", cfg.DiagAddr, "Daemon diagnostic address (env: PM_DIAG_ADDR)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	return cmd
}

// fetchState retrieves /state from the daemon and copies it to w.
func fetchState(w io.Writer, addr, format string) error {
	stateURL := url.URL{
		Scheme:   "http",
		Host:     addr,
		Path:     "/state",
		RawQuery: url.Values{"format": {format}}.Encode(),
	}

	client := &http.Client{Timeout: stateTimeout}
	resp, err := client.Get(stateURL.String())
	if err != nil {
		return fmt.Errorf("querying daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	return nil
}
