// Package cli implements the viewui command-line interface.
//
// The root command opens a dashboard in the terminal UI. Subcommands cover
// the non-interactive paths:
//
//	viewui [dashboard.json]      - Live dashboard (plain snapshot when piped)
//	viewui snapshot [dashboard]  - Refresh once and print tables
//	viewui dashboards            - List or pick dashboards from a directory
//	viewui check                 - Probe the Prometheus backend
//	viewui init                  - Write an example viewui.yaml
//	viewui version               - Print build information
//
// Every command builds the same app: config from viper, a zerolog-backed
// logger, a Prometheus client and a store.Coordinator. While the TUI owns
// the terminal, logs go to log.file or are discarded.
package cli
