package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finterm/internal/models"
)

// addMarketCommands adds watchlist, holdings and quote commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newHoldingsCmd(app))
	rootCmd.AddCommand(newQuotesCmd(app))
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Symbols the monitor watches",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			symbols, err := app.Store.Watchlist(ctx)
			if err != nil {
				output.Error("Failed to fetch watchlist: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Dim("Watchlist is empty. Add symbols with 'finterm watchlist add <symbol>'.")
				return nil
			}
			output.Println(strings.Join(symbols, "  "))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol...>",
		Short: "Add symbols to the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			for _, symbol := range args {
				symbol = strings.ToUpper(symbol)
				if err := app.Store.AddToWatchlist(ctx, symbol); err != nil {
					output.Error("Failed to add %s: %v", symbol, err)
					return err
				}
				output.Success("Added %s", symbol)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol...>",
		Short: "Remove symbols from the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			for _, symbol := range args {
				symbol = strings.ToUpper(symbol)
				if err := app.Store.RemoveFromWatchlist(ctx, symbol); err != nil {
					output.Error("Failed to remove %s: %v", symbol, err)
					return err
				}
				output.Success("Removed %s", symbol)
			}
			return nil
		},
	})

	return cmd
}

func newHoldingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Portfolio positions the monitor tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			holdings, err := app.Store.Holdings(ctx)
			if err != nil {
				output.Error("Failed to fetch holdings: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(holdings)
			}
			if len(holdings) == 0 {
				output.Dim("No holdings. Add one with 'finterm holdings set <symbol> <shares> <cost>'.")
				return nil
			}

			table := NewTable(output, "Symbol", "Shares", "Cost Basis")
			for _, h := range holdings {
				table.AddRow(h.Symbol, fmt.Sprintf("%.4f", h.Shares), fmt.Sprintf("%.2f", h.CostBasis))
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <symbol> <shares> <cost-basis>",
		Short: "Add or update a holding",
		Args:  cobra.ExactArgs(3),
		Example: `  finterm holdings set AAPL 10 182.50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			shares, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid shares %q", args[1])
			}
			cost, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid cost basis %q", args[2])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			holding := models.Holding{
				Symbol:    strings.ToUpper(args[0]),
				Shares:    shares,
				CostBasis: cost,
			}
			if err := app.Store.UpsertHolding(ctx, holding); err != nil {
				output.Error("Failed to save holding: %v", err)
				return err
			}
			output.Success("Holding %s saved", holding.Symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			if err := app.Store.RemoveHolding(ctx, symbol); err != nil {
				output.Error("Failed to remove %s: %v", symbol, err)
				return err
			}
			output.Success("Holding %s removed", symbol)
			return nil
		},
	})

	return cmd
}

func newQuotesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quotes [symbol...]",
		Short: "Show live quotes for tracked or given symbols",
		Example: `  finterm quotes
  finterm quotes AAPL MSFT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbols := args
			for i := range symbols {
				symbols[i] = strings.ToUpper(symbols[i])
			}
			if len(symbols) == 0 {
				if app.Store == nil {
					return fmt.Errorf("store not available")
				}
				watchlist, err := app.Store.Watchlist(ctx)
				if err != nil {
					output.Error("Failed to fetch watchlist: %v", err)
					return err
				}
				holdings, err := app.Store.Holdings(ctx)
				if err != nil {
					output.Error("Failed to fetch holdings: %v", err)
					return err
				}
				seen := make(map[string]bool)
				for _, s := range watchlist {
					if !seen[s] {
						seen[s] = true
						symbols = append(symbols, s)
					}
				}
				for _, h := range holdings {
					if !seen[h.Symbol] {
						seen[h.Symbol] = true
						symbols = append(symbols, h.Symbol)
					}
				}
			}
			if len(symbols) == 0 {
				output.Dim("Nothing to quote. Add symbols to your watchlist first.")
				return nil
			}

			quotes, err := app.Provider.Quotes(ctx, symbols)
			if err != nil {
				output.Error("Failed to fetch quotes: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(quotes)
			}

			table := NewTable(output, "Symbol", "Price", "Change", "Change %")
			for _, q := range quotes {
				table.AddRow(
					q.Symbol,
					fmt.Sprintf("%.2f", q.Price),
					fmt.Sprintf("%+.2f", q.Change),
					output.FormatChangePercent(q.ChangePercent),
				)
			}
			table.Render()
			return nil
		},
	}
}
