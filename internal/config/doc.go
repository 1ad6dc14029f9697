// Package config loads, normalizes, and validates ramanid configuration data.
//
// It supplies defaults for every processing step (baseline, smoothing, peak
// picking, fitting and matching), expands user paths including tilde
// shortcuts, reads TOML files, and honours the RAMANID_DATABASE environment
// fallback for the reference database location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
