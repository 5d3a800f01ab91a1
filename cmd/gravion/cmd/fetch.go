package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gravion/internal/fetcher"
	"gravion/internal/repository"
)

var (
	fetchHistory bool
	fetchRange   string
	fetchSymbols []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch quotes (and optionally daily history) into the database",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchHistory, "history", false, "also fetch daily history for each symbol")
	fetchCmd.Flags().StringVar(&fetchRange, "range", "6mo", "history range to fetch (e.g. 6mo, 1y)")
	fetchCmd.Flags().StringSliceVar(&fetchSymbols, "symbols", nil, "symbols to fetch (default NASDAQ 100)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	symbols := fetchSymbols
	if len(symbols) == 0 {
		symbols = fetcher.Nasdaq100
	}
	market := fetcher.New(cfg.Fetch.BaseURL, cfg.Fetch.Timeout)
	fetchTime := time.Now()

	bar := progressbar.NewOptions(len(symbols),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Fetching market data..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	var (
		mu       sync.Mutex
		fetched  int
		failures []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Fetch.Workers)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			err := fetchSymbol(gctx, db, market, symbol, fetchTime)
			mu.Lock()
			defer mu.Unlock()
			_ = bar.Add(1)
			if err != nil {
				failures = append(failures, symbol+": "+err.Error())
				return nil
			}
			fetched++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().
		Int("fetched", fetched).
		Int("failed", len(failures)).
		Int("total", len(symbols)).
		Msg("fetch complete")
	for _, f := range failures {
		log.Warn().Msg(f)
	}
	return nil
}

func fetchSymbol(ctx context.Context, db *repository.Database, market *fetcher.Client, symbol string, fetchTime time.Time) error {
	quote, err := market.Quote(ctx, symbol)
	if err != nil {
		return err
	}
	quote.LastFetched = fetchTime
	if err := db.UpsertQuote(ctx, quote); err != nil {
		return err
	}
	if !fetchHistory {
		return nil
	}
	bars, err := market.DailyHistory(ctx, symbol, fetchRange)
	if err != nil {
		return err
	}
	_, err = db.SaveHistory(ctx, symbol, bars)
	return err
}
