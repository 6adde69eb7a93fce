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

// addWebhookCommands adds webhook endpoint management commands.
func addWebhookCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWebhooksCmd(app))
}

func newWebhooksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Webhook endpoints",
		Long:  "Register and manage webhook endpoints that receive alerts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebhooksList(cmd, app)
		},
	}

	cmd.AddCommand(newWebhooksAddCmd(app))
	cmd.AddCommand(newWebhooksRemoveCmd(app))
	cmd.AddCommand(newWebhooksEnableCmd(app, true))
	cmd.AddCommand(newWebhooksEnableCmd(app, false))
	cmd.AddCommand(newWebhooksTypesCmd(app))
	cmd.AddCommand(newWebhooksTestCmd(app))
	cmd.AddCommand(newWebhooksStatsCmd(app))

	return cmd
}

func runWebhooksList(cmd *cobra.Command, app *App) error {
	output := NewOutput(cmd)
	if app.Store == nil {
		return fmt.Errorf("store not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoints, err := app.Store.GetWebhooks(ctx, false)
	if err != nil {
		output.Error("Failed to fetch webhooks: %v", err)
		return err
	}

	if output.IsJSON() {
		return output.JSON(endpoints)
	}

	if len(endpoints) == 0 {
		output.Dim("No webhook endpoints. Add one with 'finterm webhooks add <url>'.")
		return nil
	}

	table := NewTable(output, "ID", "Name", "URL", "State", "Types", "Failures")
	for _, ep := range endpoints {
		state := output.Green("enabled")
		if !ep.Enabled {
			state = output.Red("disabled")
		} else if ep.Suspended() {
			state = output.Yellow("suspended")
		}

		types := "all"
		if len(ep.AlertTypes) > 0 {
			parts := make([]string, len(ep.AlertTypes))
			for i, t := range ep.AlertTypes {
				parts[i] = string(t)
			}
			types = strings.Join(parts, ",")
		}

		table.AddRow(
			strconv.FormatInt(ep.ID, 10),
			ep.Name,
			TruncateString(ep.URL, 48),
			state,
			types,
			strconv.Itoa(ep.FailCount),
		)
	}
	table.Render()
	return nil
}

func newWebhooksAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a webhook endpoint",
		Args:  cobra.ExactArgs(1),
		Example: `  finterm webhooks add https://hooks.example.com/finterm
  finterm webhooks add https://hooks.example.com/finterm --name slack`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			name, _ := cmd.Flags().GetString("name")
			ep, err := app.Store.AddWebhook(ctx, args[0], name)
			if err != nil {
				output.Error("Failed to add webhook: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(ep)
			}
			output.Success("Webhook %d registered: %s", ep.ID, ep.URL)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name for the endpoint")
	return cmd
}

func newWebhooksRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a webhook endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid webhook id %q", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.RemoveWebhook(ctx, id); err != nil {
				output.Error("Failed to remove webhook: %v", err)
				return err
			}
			output.Success("Webhook %d removed", id)
			return nil
		},
	}
}

func newWebhooksEnableCmd(app *App, enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable a webhook endpoint (resets its failure count)"
	if !enable {
		use, short = "disable <id>", "Disable a webhook endpoint"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid webhook id %q", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.SetWebhookEnabled(ctx, id, enable); err != nil {
				output.Error("Failed to update webhook: %v", err)
				return err
			}
			if enable {
				output.Success("Webhook %d enabled", id)
			} else {
				output.Success("Webhook %d disabled", id)
			}
			return nil
		},
	}
}

func newWebhooksTypesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "types <id> [type...]",
		Short: "Set an endpoint's alert type allow-list (no types = all)",
		Args:  cobra.MinimumNArgs(1),
		Example: `  finterm webhooks types 1 price_drop earnings_soon
  finterm webhooks types 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store not available")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid webhook id %q", args[0])
			}

			types := make([]models.AlertType, 0, len(args)-1)
			for _, t := range args[1:] {
				types = append(types, models.AlertType(t))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Store.SetWebhookAlertTypes(ctx, id, types); err != nil {
				output.Error("Failed to update webhook: %v", err)
				return err
			}
			if len(types) == 0 {
				output.Success("Webhook %d now receives all alert types", id)
			} else {
				output.Success("Webhook %d allow-list updated", id)
			}
			return nil
		},
	}
}

func newWebhooksTestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Send a test alert to an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Dispatcher == nil {
				return fmt.Errorf("store not available")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid webhook id %q", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := app.Dispatcher.TestWebhook(ctx, id); err != nil {
				output.Error("Test delivery failed: %v", err)
				return err
			}
			output.Success("Test alert delivered to webhook %d", id)
			return nil
		},
	}
}

func newWebhooksStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate endpoint health",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Dispatcher == nil {
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			stats, err := app.Dispatcher.Stats(ctx)
			if err != nil {
				output.Error("Failed to fetch stats: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}
			output.Bold("Webhook Endpoints")
			output.Printf("  Total:   %d\n", stats.Total)
			output.Printf("  Enabled: %d\n", stats.Enabled)
			output.Printf("  Failing: %d\n", stats.Failing)
			return nil
		},
	}
}
