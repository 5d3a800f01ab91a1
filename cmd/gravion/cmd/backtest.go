package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gravion/internal/engine"
	"gravion/internal/repository"
	"gravion/strategies"
)

var (
	backtestStrategy string
	backtestCapital  float64
	backtestParams   []string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest SYMBOL",
	Short: "Run a strategy backtest over a symbol's cached history",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy", "Golden Cross", "strategy name")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", engine.DefaultInitialCapital, "initial capital")
	backtestCmd.Flags().StringSliceVar(&backtestParams, "param", nil, "strategy parameter override, key=value (repeatable)")
}

// parseParams turns key=value flags into a parameter map.
func parseParams(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", pair, err)
		}
		params[key] = f
	}
	return params, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	symbol := strings.ToUpper(args[0])

	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	params, err := parseParams(backtestParams)
	if err != nil {
		return err
	}

	registry := strategies.NewRegistry()
	var strat strategies.Strategy
	if len(params) > 0 {
		strat, err = registry.New(backtestStrategy, params)
		if err != nil {
			return err
		}
	} else {
		var ok bool
		strat, ok = registry.Get(backtestStrategy)
		if !ok {
			return fmt.Errorf("%q: %w", backtestStrategy, strategies.ErrUnknownStrategy)
		}
	}

	bars, err := db.GetHistory(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNoHistory) {
			return fmt.Errorf("no history for %s, run 'gravion fetch --history --symbols %s' first", symbol, symbol)
		}
		return err
	}

	result := engine.Run(strat, bars, backtestCapital)
	result.Symbol = symbol

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
