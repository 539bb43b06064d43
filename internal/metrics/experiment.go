// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Validation metrics
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advexp_validations_total",
		Help: "Experiment document validations by outcome",
	}, []string{"outcome"}) // outcome=valid|invalid

	ValidationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advexp_validation_errors_total",
		Help: "Validation failures by document key",
	}, []string{"key"})

	// Reload metrics
	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advexp_reloads_total",
		Help: "Hot reloads of the watched experiment by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	LastLoadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "advexp_last_load_timestamp_seconds",
		Help: "Unix time of the last successful experiment load",
	})

	// Run metrics
	RunsPreparedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advexp_runs_prepared_total",
		Help: "Run directories prepared by dataset",
	}, []string{"dataset"})

	DeviceFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advexp_device_fallbacks_total",
		Help: "Runs prepared on cpu because the requested cuda device was unavailable",
	})
)

// RecordValidation counts one validation and the keys that failed it.
func RecordValidation(valid bool, fields []string) {
	if valid {
		ValidationsTotal.WithLabelValues("valid").Inc()
		return
	}
	ValidationsTotal.WithLabelValues("invalid").Inc()
	for _, f := range fields {
		ValidationErrorsTotal.WithLabelValues(f).Inc()
	}
}

// RecordReload counts one reload attempt.
func RecordReload(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	ReloadsTotal.WithLabelValues(outcome).Inc()
}

// SetLastLoad records the time of a successful load.
func SetLastLoad(t time.Time) {
	LastLoadTimestamp.Set(float64(t.Unix()))
}

// RecordRunPrepared counts a prepared run and whether its device fell back.
func RecordRunPrepared(dataset string, deviceFallback bool) {
	RunsPreparedTotal.WithLabelValues(dataset).Inc()
	if deviceFallback {
		DeviceFallbacksTotal.Inc()
	}
}
