// Package version exposes build metadata injected via -ldflags and renders it
// for the `version` subcommand and the HTTP User-Agent of outgoing reports.
package version
