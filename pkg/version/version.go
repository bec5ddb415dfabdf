// Package version holds the build version reported by /health and /version.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/Adithya-Monish-Kumar-K/ragqa/pkg/version.Version=...".
var Version = "0.2.0-boost+canon+auth+metrics"
