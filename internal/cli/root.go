// Package cli provides the command-line interface for the terminal.
package cli

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"finterm/internal/ai"
	"finterm/internal/alerts"
	"finterm/internal/config"
	"finterm/internal/logging"
	"finterm/internal/market"
	"finterm/internal/models"
	"finterm/internal/store"
	"finterm/internal/webhook"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Store       store.AlertStore
	Provider    market.Provider
	Dispatcher  *webhook.Dispatcher
	Service     *alerts.Service
	Commentator *ai.Commentator
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := cfg.Data.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(config.DefaultConfigDir(), "finterm.db")
	}
	alertStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = alertStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	app.Provider = market.NewHTTPProvider(market.HTTPConfig{
		BaseURL: cfg.Market.BaseURL,
		APIKey:  cfg.Credentials.Market.APIKey,
		Timeout: cfg.Market.RequestTimeout,
	})

	if app.Store != nil {
		app.Dispatcher = webhook.NewDispatcher(app.Store, logger)
		forward := alerts.NotifierFunc(func(ctx context.Context, alert models.Alert) {
			app.Dispatcher.DispatchAlert(ctx, alert)
		})
		app.Service = alerts.NewService(app.Store, app.Provider, forward, logger)
	}

	app.Commentator = ai.NewCommentator(cfg.Credentials.OpenAI.APIKey, cfg.Credentials.OpenAI.Model)
	if app.Commentator.Configured() {
		logger.Debug().Str("model", cfg.Credentials.OpenAI.Model).Msg("OpenAI commentator initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "finterm",
		Short: "finterm - personal financial terminal with proactive alerts",
		Long: `finterm is a personal financial terminal for the command line.

It watches your holdings and watchlist for price moves, upcoming
earnings and other notable events, raises alerts, and can forward them
to webhook endpoints you register.

Use 'finterm help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/finterm)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addAlertCommands(rootCmd, app)
	addMonitorCommands(rootCmd, app)
	addWebhookCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("finterm v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	cmd.AddCommand(newCredentialsCmd(app))

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Data")
	output.Printf("  DB Path:         %s\n", cfg.Data.DBPath)
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Base URL:        %s\n", cfg.Market.BaseURL)
	output.Printf("  Request Timeout: %s\n", cfg.Market.RequestTimeout)
	output.Printf("  API Key Set:     %v\n", cfg.Credentials.Market.APIKey != "")
	output.Println()

	output.Bold("AI")
	output.Printf("  Model:           %s\n", cfg.Credentials.OpenAI.Model)
	output.Printf("  API Key Set:     %v\n", cfg.Credentials.OpenAI.APIKey != "")
	output.Println()

	output.Bold("Security")
	output.Printf("  Encrypt Creds:   %v\n", cfg.Security.EncryptCredentials)
}
