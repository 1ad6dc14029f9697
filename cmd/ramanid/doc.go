// Package main hosts the ramanid CLI entrypoint and command graph.
//
// Commands load a measured spectrum, apply the editing pipeline (crop,
// baseline estimation and correction, smoothing), detect and fit peaks, and
// search the reference database for mineral combinations that explain the
// observed peaks. The db subcommands maintain that database.
//
// Keep this package thin: the work lives in internal/session,
// internal/matching and internal/refstore, and commands here only translate
// flags into calls and results into tables or JSON.
package main
