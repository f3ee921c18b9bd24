package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/artic-browser/internal/tui"
	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/Sternrassler/artic-browser/pkg/selection"
)

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "artic-browser",
		Short: "Browse the Art Institute of Chicago artwork catalog",
		Long: `Browse the Art Institute of Chicago artwork catalog one page at a time
and pick artworks across pages.

Controls:
  space     - Toggle row
  a         - Toggle every row on the page
  n/→, p/←  - Next / previous page
  g, G      - First / last page
  +, -      - More / fewer rows per page
  s         - Select the first N rows of the page
  ?         - Toggle help
  q         - Quit

When stdout is not a terminal the first page is printed as plain text.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdoutIsTerminal() {
				return runPage(cmd, opts, 1, false)
			}
			return runBrowser(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", getEnv("CATALOG_BASE_URL", catalog.DefaultBaseURL), "catalog API base URL")
	flags.StringVar(&opts.userAgent, "user-agent", getEnv("USER_AGENT", "artic-browser/"+version), "User-Agent sent to the catalog")
	flags.IntVar(&opts.pageSize, "page-size", getEnvInt("PAGE_SIZE", catalog.DefaultPageSize), "rows per page")
	flags.DurationVar(&opts.timeout, "timeout", getEnvDuration("CATALOG_TIMEOUT", 15*time.Second), "timeout of a single request")
	flags.IntVar(&opts.retries, "retries", getEnvInt("CATALOG_RETRIES", 1), "attempts per page request (1 disables retries)")
	flags.Float64Var(&opts.rate, "rate", getEnvFloat("CATALOG_RATE", 1), "maximum requests per second")
	flags.StringVar(&opts.redisURL, "redis-url", getEnv("REDIS_URL", ""), "Redis address for the response cache (empty disables it)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", getEnv("METRICS_ADDR", ""), "address for the Prometheus /metrics listener (empty disables it)")
	flags.StringVar(&opts.logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFile, "log-file", getEnv("LOG_FILE", "artic-browser.log"), "log file used while the browser owns the terminal")

	root.AddCommand(newPageCmd(opts))
	return root
}

func newPageCmd(opts *options) *cobra.Command {
	var (
		asJSON bool
		to     int
	)

	cmd := &cobra.Command{
		Use:   "page [number]",
		Short: "Print one catalog page as plain text",
		Long: `Fetch one page of the catalog and print it without selection columns.
Pages are 1-based; the default is the first page. With --to, every page up
to and including that page is fetched in parallel and printed in order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("invalid page number %q", args[0])
				}
				n = v
			}
			if to > n {
				return runRange(cmd, opts, n, to, asJSON)
			}
			return runPage(cmd, opts, n, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output the page as JSON")
	cmd.Flags().IntVar(&to, "to", 0, "last page of a range to print")
	return cmd
}

// setupPlainLogging sends logs to stderr for the non-interactive commands.
func setupPlainLogging(cmd *cobra.Command, opts *options) {
	logging.Setup(logging.Config{
		Level:   logging.LogLevel(opts.logLevel),
		Output:  cmd.ErrOrStderr(),
		Session: logging.NewSessionID(),
	})
}

// runPage loads one page and writes it to stdout. Logs go to stderr.
func runPage(cmd *cobra.Command, opts *options, n int, asJSON bool) error {
	setupPlainLogging(cmd, opts)

	s, err := opts.build(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.store.LoadPage(cmd.Context(), n)
	if err != nil {
		return fmt.Errorf("load page %d: %w", n, err)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), snap)
	}
	return tui.WritePlain(cmd.OutOrStdout(), snap, stdoutWidth())
}

// runRange fetches pages from..to in parallel and writes them in order.
func runRange(cmd *cobra.Command, opts *options, from, to int, asJSON bool) error {
	setupPlainLogging(cmd, opts)

	s, err := opts.build(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	size := s.client.PageSize()
	bf := pagination.NewBatchFetcher(s.client, pagination.BatchConfig{Timeout: opts.timeout * time.Duration(max(opts.retries, 1))})
	pages, err := bf.FetchRange(cmd.Context(), from, to, size)
	if err != nil {
		return fmt.Errorf("load pages %d..%d: %w", from, to, err)
	}

	out := cmd.OutOrStdout()
	for i, page := range pages {
		snap := pageSnapshot(page, from+i, size)
		if asJSON {
			err = writeJSON(out, snap)
		} else {
			err = tui.WritePlain(out, snap, stdoutWidth())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// pageSnapshot describes a batch-fetched page the way the store would.
func pageSnapshot(page *catalog.Page, n, size int) pagination.Snapshot {
	return pagination.Snapshot{
		Records:      page.Records,
		PageNumber:   n,
		PageSize:     size,
		RowOffset:    (n - 1) * size,
		TotalRecords: page.Pagination.Total,
		TotalPages:   catalog.TotalPages(page.Pagination.Total, size),
		Loaded:       true,
	}
}

// pageOutput is the --json shape of a page.
type pageOutput struct {
	Page         int              `json:"page"`
	PageSize     int              `json:"page_size"`
	TotalPages   int              `json:"total_pages"`
	TotalRecords int              `json:"total_records"`
	Records      []catalog.Record `json:"records"`
}

func writeJSON(w io.Writer, snap pagination.Snapshot) error {
	data, err := json.MarshalIndent(pageOutput{
		Page:         snap.PageNumber,
		PageSize:     snap.PageSize,
		TotalPages:   snap.TotalPages,
		TotalRecords: snap.TotalRecords,
		Records:      snap.Records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// runBrowser starts the interactive browser. Logs go to the log file.
func runBrowser(cmd *cobra.Command, opts *options) error {
	f, err := logging.OpenFile(opts.logFile)
	if err != nil {
		return err
	}
	defer f.Close()

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(opts.logLevel),
		Output:  f,
		Session: logging.NewSessionID(),
	})
	logger := logging.NewLogger("main")

	s, err := opts.build(cmd.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer s.Close()

	app, err := tui.NewApp(s.store, selection.NewReconciler(selection.NewSet()))
	if err != nil {
		return err
	}

	logger.Info().Msg("Browser started")
	if err := tui.Run(cmd.Context(), app); err != nil {
		logger.Error().Err(err).Msg("Browser stopped with error")
		return err
	}
	logger.Info().Msg("Browser stopped")
	return nil
}
