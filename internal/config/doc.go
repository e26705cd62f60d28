// Package config reads benchmgr.toml.
//
// Load looks for an explicit path, then ~/.config/benchmgr/config.toml, then
// ./benchmgr.toml, and falls back to Default when none exists. Loaded values
// are normalized (tilde expansion, lower-cased enums, BENCHMGR_NTFY_TOPIC
// fallback) and validated before they are returned, so callers never see a
// pool policy or log level they cannot act on.
package config
