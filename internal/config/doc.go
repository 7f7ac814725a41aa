// Package config handles loading rdlink's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use $XDG_CONFIG_HOME/rdlink/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - API base URL: https://api.real-debrid.com/rest/1.0
//   - Hoster hint: uptobox.com
//   - Poll interval: 1s
//   - Conversion timeout: 30m (0 disables it)
//   - Token variable: RD_TOKEN
//   - Log level: warn
//   - Theme: Nightfox
//
// # TOML Format
//
//	base_url = "https://api.real-debrid.com/rest/1.0"
//	host = "uptobox.com"
//	poll_interval = "1s"
//	timeout = "30m"
//	token_env = "RD_TOKEN"
//	log_level = "warn"
//	log_file = "~/.local/state/rdlink/rdlink.log"
//	theme = "Nightfox"
//
// Durations use Go duration syntax. log_file supports tilde expansion.
//
// # Credentials
//
// The access token never lives in the file. Config.Token reads it from the
// environment variable named by token_env.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// a missing file, TOML syntax errors and invalid durations. A missing file
// is not an error.
package config
