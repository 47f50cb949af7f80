// Package prometheus exposes engine metrics as a Prometheus collector.
//
// [NewCollector] reads [goSession.Engine.MetricsSnapshot] on every scrape.
// Counter names are prefixed gosession_ and end in _total; the only
// histogram is gosession_authenticate_latency_seconds. Use [Handler] to
// serve the collector from its own registry, or register the collector
// with an existing registry.
package prometheus
