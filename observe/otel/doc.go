// Package otel holds the extension point for an OpenTelemetry-backed
// scope.Observer. It ships only a no-op implementation: wiring real spans
// and metrics through an OTel SDK is left to the importing application,
// which already owns its exporter and resource configuration.
package otel
