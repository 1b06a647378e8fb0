// Package config loads, normalizes, and validates Quill configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NOTION_TOKEN and OPENROUTER_API_KEY. The Config type centralizes every knob
// the daemon and CLI need, from mailbox credentials to archive directories.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
