// Package config loads, normalizes, and validates mixchapters configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MIXCHAPTERS_EMAIL and MIXCHAPTERS_PASSWORD. The Config type centralizes the
// catalog account, session cache backend, scoring weights and workflow
// policy so every command discovers them in one pass.
//
// The alias table is merged from the inline [aliases] section and the YAML
// file named by paths.alias_file; see LoadAliases.
package config
