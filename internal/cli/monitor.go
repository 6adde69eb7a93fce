package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"finterm/internal/notify"
	"finterm/internal/store"
)

// addMonitorCommands adds the background monitor commands.
func addMonitorCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newMonitorCmd(app))
}

func newMonitorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Background alert monitor",
		Long:  "Run, inspect and trigger the background alert monitor.",
	}

	cmd.AddCommand(newMonitorRunCmd(app))
	cmd.AddCommand(newMonitorCheckCmd(app))
	cmd.AddCommand(newMonitorStatusCmd(app))

	return cmd
}

func newMonitorRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor in the foreground until interrupted",
		Example: `  finterm monitor run
  finterm monitor run --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			notifier := notify.NewTerminalNotifier(100)
			notifier.AddHandler(notify.DefaultHandler(!output.IsJSON()))
			notifier.Start(ctx)
			unsubscribe := app.Service.OnAlert(func(ev store.AlertEvent) {
				if ev.Kind == store.EventCreated {
					notifier.Notify(ev.Alert)
				}
			})
			defer unsubscribe()

			if !app.Service.StartMonitor(ctx) {
				if !app.Service.Config(ctx).Enabled {
					output.Warning("Alerts are disabled; enable them with 'finterm alerts config --enabled=true'")
				} else {
					output.Warning("Monitor already running")
				}
				return nil
			}

			interval := app.Service.Config(ctx).CheckInterval
			output.Success("Monitor started (checking every %s). Press Ctrl+C to stop.", interval)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			app.Service.StopMonitor()
			output.Println()
			output.Info("Monitor stopped")
			return nil
		},
	}
}

func newMonitorCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one alert sweep immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			start := time.Now()
			result := app.Service.CheckNow(ctx)

			if output.IsJSON() {
				return output.JSON(result)
			}

			if !result.Checked {
				if len(result.Errors) > 0 {
					output.Warning("Sweep skipped: %s", result.Errors[0])
				} else {
					output.Warning("Alerts are disabled; nothing checked")
				}
				return nil
			}

			output.Success("Sweep complete in %s", FormatDuration(time.Since(start)))
			output.Printf("  Alerts created: %d\n", result.AlertsCreated)
			for _, e := range result.Errors {
				output.Warning("  %s", e)
			}
			return nil
		},
	}
}

func newMonitorStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show monitor status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Service == nil {
				output.Error("Store not available")
				return fmt.Errorf("store not available")
			}

			status := app.Service.MonitorStatus()
			if output.IsJSON() {
				return output.JSON(status)
			}

			if status.Running {
				output.Printf("Monitor: %s\n", output.Green("running"))
			} else {
				output.Printf("Monitor: %s\n", output.Red("stopped"))
			}

			if !status.LastCheck.IsZero() {
				output.Printf("Last check: %s (%s)\n", FormatDateTime(status.LastCheck), FormatTimeAgo(status.LastCheck))
			}
			if status.LastResult != nil {
				output.Printf("Last result: %d alerts created, %d errors\n",
					status.LastResult.AlertsCreated, len(status.LastResult.Errors))
			}
			return nil
		},
	}
}
