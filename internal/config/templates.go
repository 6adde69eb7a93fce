package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# finterm configuration

[data]
# Path to the local SQLite database
# db_path = "~/.config/finterm/finterm.db"

[market]
# Market data API base URL
base_url = "https://query1.finance.example.com/v8"
# Per-request timeout
request_timeout = "10s"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[security]
# Encrypt stored API credentials at rest
encrypt_credentials = false
`

const credentialsTemplate = `# finterm credentials
# Keep this file private (chmod 600).

[market]
# Market data API key (or set FINTERM_QUOTE_API_KEY)
api_key = ""

[openai]
# OpenAI API key for alert commentary (or set OPENAI_API_KEY)
api_key = ""
model = "gpt-4o-mini"
`

func createTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate, 0644)
}

func createTemplateCredentials(configDir string) error {
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
}

func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}
