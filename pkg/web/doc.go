// Package web binds form aggregates to HTTP: request decoding into
// submitted data and files, JSON validate/submit endpoints on a chi
// router, a WebSocket channel for validating drafts as the user types,
// and Prometheus/OpenTelemetry instrumentation around validation and
// save.
package web
