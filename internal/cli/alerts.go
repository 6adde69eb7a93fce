package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"finterm/internal/models"
	"finterm/internal/store"
)

// addAlertCommands adds the alert inbox commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAlertsCmd(app))
}

func newAlertsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Alert inbox",
		Long:  "List, read and dismiss alerts, and manage alert settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlertsList(cmd, app)
		},
	}

	cmd.Flags().String("status", "pending", "filter by status (pending|read|dismissed|all)")
	cmd.Flags().String("type", "", "filter by alert type")
	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().Int("limit", 50, "maximum alerts to show")

	cmd.AddCommand(newAlertsReadCmd(app))
	cmd.AddCommand(newAlertsDismissCmd(app))
	cmd.AddCommand(newAlertsSummaryCmd(app))
	cmd.AddCommand(newAlertsConfigCmd(app))
	cmd.AddCommand(newAlertsDigestCmd(app))

	return cmd
}

func runAlertsList(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	if app.Store == nil {
		output.Error("Store not available")
		return fmt.Errorf("store not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	statusFlag, _ := cmd.Flags().GetString("status")
	typeFlag, _ := cmd.Flags().GetString("type")
	symbolFlag, _ := cmd.Flags().GetString("symbol")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.AlertFilter{
		Type:   models.AlertType(typeFlag),
		Symbol: symbolFlag,
		Limit:  limit,
	}
	if statusFlag != "all" {
		filter.Status = models.AlertStatus(statusFlag)
	}

	alerts, err := app.Store.GetAlerts(ctx, filter)
	if err != nil {
		output.Error("Failed to fetch alerts: %v", err)
		return err
	}

	if output.IsJSON() {
		return output.JSON(alerts)
	}

	if len(alerts) == 0 {
		output.Dim("No alerts.")
		return nil
	}

	table := NewTable(output, "", "ID", "Severity", "Type", "Symbol", "Title", "When")
	for _, a := range alerts {
		table.AddRow(
			StatusMark(a.Status),
			strconv.FormatInt(a.ID, 10),
			SeverityBadge(a.Severity),
			string(a.Type),
			a.Symbol,
			TruncateString(a.Title, 48),
			FormatTimeAgo(a.CreatedAt),
		)
	}
	table.Render()
	return nil
}

func newAlertsReadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			changed, err := app.Store.MarkAlertRead(ctx, id)
			if err != nil {
				output.Error("Failed to mark alert read: %v", err)
				return err
			}
			if changed {
				output.Success("Alert %d marked read", id)
			} else {
				output.Dim("Alert %d was not pending, nothing changed", id)
			}
			return nil
		},
	}
}

func newAlertsDismissCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismiss [id]",
		Short: "Dismiss an alert, or all pending alerts with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			all, _ := cmd.Flags().GetBool("all")
			if all {
				n, err := app.Store.DismissAllAlerts(ctx)
				if err != nil {
					output.Error("Failed to dismiss alerts: %v", err)
					return err
				}
				output.Success("Dismissed %d alerts", n)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("alert id or --all required")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			changed, err := app.Store.DismissAlert(ctx, id)
			if err != nil {
				output.Error("Failed to dismiss alert: %v", err)
				return err
			}
			if changed {
				output.Success("Alert %d dismissed", id)
			} else {
				output.Dim("Alert %d was not pending, nothing changed", id)
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "dismiss all pending alerts")
	return cmd
}

func newAlertsSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show pending alert counts by severity",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			summary, err := app.Store.GetAlertSummary(ctx)
			if err != nil {
				output.Error("Failed to fetch summary: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}

			output.Bold("Pending Alerts: %d", summary.Pending)
			output.Printf("  %s %d\n", output.Red("critical"), summary.Critical)
			output.Printf("  %s %d\n", output.Yellow("warning "), summary.Warning)
			output.Printf("  %s %d\n", output.Cyan("info    "), summary.Info)

			if len(summary.Alerts) > 0 {
				output.Println()
				for _, a := range summary.Alerts {
					output.Printf("  %s %s %s\n", SeverityBadge(a.Severity), a.Title, output.DimText(FormatTimeAgo(a.CreatedAt)))
				}
			}
			return nil
		},
	}
}

func newAlertsConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change alert settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			update, changed, err := alertConfigUpdateFromFlags(cmd)
			if err != nil {
				return err
			}

			if changed {
				cfg, err := app.Store.UpdateAlertConfig(ctx, update)
				if err != nil {
					output.Error("Failed to update settings: %v", err)
					return err
				}
				output.Success("Alert settings updated")
				output.Println()
				return showAlertConfig(output, *cfg)
			}

			return showAlertConfig(output, app.Store.GetAlertConfig(ctx))
		},
	}

	cmd.Flags().String("enabled", "", "enable or disable all alerts (true|false)")
	cmd.Flags().Float64("drop-threshold", 0, "price drop threshold percent")
	cmd.Flags().Float64("spike-threshold", 0, "price spike threshold percent")
	cmd.Flags().Int("earnings-days", 0, "earnings look-ahead days")
	cmd.Flags().Duration("interval", 0, "monitor check interval")
	cmd.Flags().Int("max-per-day", 0, "maximum alerts per day")

	return cmd
}

func alertConfigUpdateFromFlags(cmd *cobra.Command) (models.AlertConfigUpdate, bool, error) {
	var update models.AlertConfigUpdate
	changed := false

	if v, _ := cmd.Flags().GetString("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return update, false, fmt.Errorf("invalid --enabled value %q", v)
		}
		update.Enabled = &enabled
		changed = true
	}
	if cmd.Flags().Changed("drop-threshold") {
		v, _ := cmd.Flags().GetFloat64("drop-threshold")
		update.PriceDropThreshold = &v
		changed = true
	}
	if cmd.Flags().Changed("spike-threshold") {
		v, _ := cmd.Flags().GetFloat64("spike-threshold")
		update.PriceSpikeThreshold = &v
		changed = true
	}
	if cmd.Flags().Changed("earnings-days") {
		v, _ := cmd.Flags().GetInt("earnings-days")
		update.EarningsLookAheadDays = &v
		changed = true
	}
	if cmd.Flags().Changed("interval") {
		v, _ := cmd.Flags().GetDuration("interval")
		update.CheckInterval = &v
		changed = true
	}
	if cmd.Flags().Changed("max-per-day") {
		v, _ := cmd.Flags().GetInt("max-per-day")
		update.MaxAlertsPerDay = &v
		changed = true
	}

	return update, changed, nil
}

func showAlertConfig(output *Output, cfg models.AlertConfig) error {
	if output.IsJSON() {
		return output.JSON(cfg)
	}

	onOff := func(b bool) string {
		if b {
			return output.Green("on")
		}
		return output.Red("off")
	}

	output.Bold("Alert Settings")
	output.Printf("  Alerts:            %s\n", onOff(cfg.Enabled))
	output.Printf("  Price Drops:       %s (threshold %.1f%%)\n", onOff(cfg.PriceDropEnabled), cfg.PriceDropThreshold)
	output.Printf("  Price Spikes:      %s (threshold %.1f%%)\n", onOff(cfg.PriceSpikeEnabled), cfg.PriceSpikeThreshold)
	output.Printf("  Earnings:          %s (%d days ahead)\n", onOff(cfg.EarningsEnabled), cfg.EarningsLookAheadDays)
	output.Printf("  Watchlist Events:  %s\n", onOff(cfg.WatchlistEnabled))
	output.Printf("  Check Interval:    %s\n", cfg.CheckInterval)
	output.Printf("  Max Per Day:       %d\n", cfg.MaxAlertsPerDay)
	return nil
}

func newAlertsDigestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "AI summary of pending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}
			if !app.Commentator.Configured() {
				output.Error("OpenAI API key not configured. Set OPENAI_API_KEY or credentials.toml.")
				return fmt.Errorf("openai not configured")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			alerts, err := app.Store.GetPendingAlerts(ctx)
			if err != nil {
				output.Error("Failed to fetch alerts: %v", err)
				return err
			}

			digest, err := app.Commentator.DigestAlerts(ctx, alerts)
			if err != nil {
				output.Error("Digest failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"digest": digest})
			}
			output.Println(digest)
			return nil
		},
	}
}
