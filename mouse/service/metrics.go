package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	// stepsTotal counts robot decisions by outcome: found, stuck, arrived, failed
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "micromouse_steps_total",
		Help: "Robot decisions by outcome",
	}, []string{"outcome"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "micromouse_runs_total",
		Help: "Runs that ended, by final phase",
	}, []string{"phase"})

	stepCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "micromouse_step_call_duration_seconds",
		Help:    "Duration of step and run calls",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})

	routeLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "micromouse_route_length",
		Help:    "Cells driven per decision",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "micromouse_sessions_active",
		Help: "Sessions held by the service",
	})
)

var (
	tracerOnce    sync.Once
	serviceTracer trace.Tracer
)

// getTracer returns the OTel tracer, initializing it lazily
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		serviceTracer = otel.Tracer("micromouse/service")
	})
	return serviceTracer
}
