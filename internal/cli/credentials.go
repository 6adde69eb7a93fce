package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"finterm/internal/config"
	"finterm/internal/security"
)

func newCredentialsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage encrypted API credentials",
		Long: `Store and inspect API keys encrypted at rest.

Keys are kept in credentials.enc under the config directory, encrypted
with a key derived from a master password you choose.`,
	}

	cmd.AddCommand(newCredentialsSetCmd(app))
	cmd.AddCommand(newCredentialsShowCmd(app))

	return cmd
}

func newCredentialsSetCmd(app *App) *cobra.Command {
	var marketKey, openaiKey string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store API keys encrypted with a master password",
		Example: `  finterm config credentials set --market-key mk-live-xxx
  finterm config credentials set --openai-key sk-proj-xxx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if marketKey == "" && openaiKey == "" {
				return fmt.Errorf("nothing to store: pass --market-key and/or --openai-key")
			}

			password, err := promptPassword(cmd, "Master password: ")
			if err != nil {
				return err
			}

			cm := security.NewCredentialManager(credentialsDir(cmd))
			if err := cm.Initialize(password); err != nil {
				return err
			}
			defer cm.ClearSession()

			creds, err := cm.GetCredentials()
			if err != nil {
				return err
			}
			if marketKey != "" {
				creds.Market.APIKey = marketKey
			}
			if openaiKey != "" {
				creds.OpenAI.APIKey = openaiKey
			}
			if err := cm.UpdateCredentials(creds); err != nil {
				return err
			}

			output.Success("Credentials stored")
			return nil
		},
	}

	cmd.Flags().StringVar(&marketKey, "market-key", "", "market data provider API key")
	cmd.Flags().StringVar(&openaiKey, "openai-key", "", "OpenAI API key")

	return cmd
}

func newCredentialsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored API keys, masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			password, err := promptPassword(cmd, "Master password: ")
			if err != nil {
				return err
			}

			cm := security.NewCredentialManager(credentialsDir(cmd))
			if err := cm.Initialize(password); err != nil {
				return err
			}
			defer cm.ClearSession()

			creds, err := cm.GetCredentials()
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{
					"market_api_key": security.MaskValue(creds.Market.APIKey),
					"openai_api_key": security.MaskValue(creds.OpenAI.APIKey),
				})
			}

			output.Bold("Stored Credentials")
			output.Printf("  Market API Key: %s\n", maskedOrUnset(creds.Market.APIKey))
			output.Printf("  OpenAI API Key: %s\n", maskedOrUnset(creds.OpenAI.APIKey))
			return nil
		},
	}
}

func maskedOrUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return security.MaskValue(value)
}

func credentialsDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("config"); dir != "" {
		return dir
	}
	return config.DefaultConfigDir()
}

// promptPassword reads a password without echo when stdin is a
// terminal, falling back to a plain line read otherwise.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
