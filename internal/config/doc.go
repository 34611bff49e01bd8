// Package config builds the immutable pipeline configuration.
//
// Settings come from repository defaults, an optional TOML file, and CLI flags (which may themselves be fed by
// AVSYNC_* environment variables). Build validates the merged settings once and derives the per-stage working
// directories, so downstream packages receive a read-only *Config and never compute paths themselves.
package config
