// Package otel publishes authcore engine metrics through OpenTelemetry
// asynchronous instruments.
//
// Each counter becomes an Int64ObservableCounter. Each latency histogram
// becomes a pair of gauges: <name>_bucket with an "le" attribute per bucket
// and <name>_count. The caller owns the MeterProvider.
package otel
