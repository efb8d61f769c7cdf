// Package http contains the chi HTTP handlers for the dataset API: filtered
// record access, aggregates, schema introspection, exports, and health
// probes. Handlers translate query parameters into filter configs, delegate
// to the service layer, and render errors as RFC 7807 problem documents.
package http
