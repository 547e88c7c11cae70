// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Prometheus metrics, span export, headless status lines
// 0.2.0 - Geocode cache with rate limiting, offline site tables
// 0.1.0 - Initial release: XLSX/CSV loader, launch sequencer, terminal globe
