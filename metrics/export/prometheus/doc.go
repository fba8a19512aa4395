// Package prometheus exposes authcore engine metrics as a
// prometheus.Collector.
//
// Register the exporter with your own registry, or mount [PrometheusExporter.Handler]
// which serves it from a private one. Counters are named authcore_*_total;
// latency histograms are authcore_{login,refresh,validate}_latency_seconds
// and only appear when the engine records latency.
package prometheus
