// Package observe provides telemetry for the cache library: a minimal
// JSON structured logger and an OpenTelemetry meter/tracer bootstrap with
// pluggable exporters (prometheus, otlp, stdout, none).
//
// The cache engine itself stays telemetry-agnostic; applications wire the
// meter into cache.WithMeter and use the logger around warming passes and
// invalidation triggers.
package observe
