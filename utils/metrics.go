package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stylist_generations_total",
		Help: "Initial eyewear generations by mode and outcome.",
	}, []string{"mode", "outcome"})

	VisualizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stylist_visualizations_total",
		Help: "Chat-driven re-generations by outcome.",
	}, []string{"outcome"})

	ChatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stylist_chat_requests_total",
		Help: "Consultant chat calls by outcome.",
	}, []string{"outcome"})

	GeminiRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stylist_gemini_request_seconds",
		Help:    "Latency of outbound Gemini calls.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"call"})
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
	OutcomeRejected = "rejected"
)
