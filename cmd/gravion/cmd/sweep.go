package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gravion/internal/engine"
	"gravion/internal/repository"
	"gravion/strategies"
)

var (
	sweepStrategy string
	sweepCapital  float64
	sweepWorkers  int
	sweepAxes     []string
	sweepTop      int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep SYMBOL",
	Short: "Backtest every parameter combination of a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepStrategy, "strategy", "Golden Cross", "strategy name")
	sweepCmd.Flags().Float64Var(&sweepCapital, "capital", engine.DefaultInitialCapital, "initial capital")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "concurrent backtests")
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "axis", nil, "parameter axis, param=v1,v2,v3 (repeatable)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 10, "number of top results to print")
}

// parseAxes turns param=v1,v2,v3 flags into sweep axes.
func parseAxes(specs []string) ([]engine.Axis, error) {
	axes := make([]engine.Axis, 0, len(specs))
	for _, spec := range specs {
		param, list, found := strings.Cut(spec, "=")
		if !found {
			return nil, fmt.Errorf("invalid axis %q, expected param=v1,v2,v3", spec)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value in axis %q: %w", spec, err)
			}
			values = append(values, v)
		}
		axes = append(axes, engine.Axis{Param: param, Values: values})
	}
	return axes, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := strings.ToUpper(args[0])

	axes, err := parseAxes(sweepAxes)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return errors.New("at least one --axis is required")
	}

	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	bars, err := db.GetHistory(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNoHistory) {
			return fmt.Errorf("no history for %s, run 'gravion fetch --history --symbols %s' first", symbol, symbol)
		}
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Sweeping parameter grid..."),
		progressbar.OptionSpinnerType(14))
	defer func() { _ = bar.Finish() }()

	registry := strategies.NewRegistry()
	results, skipped, err := engine.Sweep(ctx, registry, sweepStrategy, axes, bars, sweepCapital, sweepWorkers)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	for i := range results {
		results[i].Result.Symbol = symbol
	}
	if sweepTop > 0 && len(results) > sweepTop {
		results = results[:sweepTop]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"symbol":  symbol,
		"results": results,
		"skipped": skipped,
	})
}
