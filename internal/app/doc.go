// Package app wires the application together: configuration, logging,
// OpenTelemetry, the data and health services, the chi router with its
// middleware chain, and the HTTP server lifecycle.
package app
