package authcore

import (
	internalmetrics "github.com/MrEthical07/authcore/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess       = internalmetrics.MetricLoginSuccess
	MetricLoginFailure       = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited   = internalmetrics.MetricLoginRateLimited
	MetricCredentialUpgraded = internalmetrics.MetricCredentialUpgraded
	MetricRefreshSuccess     = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure     = internalmetrics.MetricRefreshFailure
	MetricRefreshRevoked     = internalmetrics.MetricRefreshRevoked
	MetricSessionCreated     = internalmetrics.MetricSessionCreated
	MetricSessionRotated     = internalmetrics.MetricSessionRotated
	MetricLogout             = internalmetrics.MetricLogout
	MetricRegisterSuccess    = internalmetrics.MetricRegisterSuccess
	MetricRegisterFailure    = internalmetrics.MetricRegisterFailure
	MetricRoleChanged        = internalmetrics.MetricRoleChanged
	MetricAccessRejected     = internalmetrics.MetricAccessRejected
	MetricPermissionDenied   = internalmetrics.MetricPermissionDenied
	MetricStorageFailure     = internalmetrics.MetricStorageFailure
	MetricLoginLatency       = internalmetrics.MetricLoginLatency
	MetricRefreshLatency     = internalmetrics.MetricRefreshLatency
	MetricValidateLatency    = internalmetrics.MetricValidateLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
