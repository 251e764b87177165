// Package config handles loading and validation of jt configuration.
//
// Configuration is read from ~/.config/jt/config.toml (or the --config
// path) with environment variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - JT_* environment variables (JT_URL, JT_PROJECT, JT_API_TOKEN, ...)
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - url: Jira base URL (cloud or server)
//   - email / user: identity for cloud (email+token) or server (user+password) auth
//   - project, board, jql: defaults for issue listing commands
//   - stale_time: how long cached results count as fresh (default "5m")
//   - cache: master switch for the local cache
//
// # Secrets
//
// Tokens and passwords are never stored in the file. JT_API_TOKEN holds
// the cloud API token or a server personal access token; JT_PASSWORD the
// server basic-auth password.
package config
