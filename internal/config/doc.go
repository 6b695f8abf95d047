// Package config loads and validates TOML configuration shared by the CLI,
// the sync agent, and the backend server.
//
// Values are resolved in three steps: repository defaults, the config file
// (default ~/.config/fixmybarangay/config.toml), then normalization (path
// expansion, trimming, env fallbacks). Validate rejects configurations that
// would misbehave at runtime rather than failing lazily later.
package config
