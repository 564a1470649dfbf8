// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package metrics defines Prometheus collectors for the detection
// pipeline. Collectors are registered via promauto at init and exposed
// through the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_events_ingested_total",
		Help: "Telemetry events accepted via the ingest endpoint.",
	}, []string{"source", "event_type"})

	ruleEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_rule_evaluations_total",
		Help: "Rule evaluations by outcome (match, no_match, error).",
	}, []string{"rule", "outcome"})

	alertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_alerts_raised_total",
		Help: "Alerts persisted, by rule and severity.",
	}, []string{"rule", "severity"})

	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_notifications_total",
		Help: "Notification attempts by channel and outcome.",
	}, []string{"channel", "outcome"})

	pollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vigil_poll_cycle_duration_seconds",
		Help:    "Duration of detection poll cycles.",
		Buckets: prometheus.DefBuckets,
	})

	pollCycleEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vigil_poll_cycle_events",
		Help: "Events evaluated in the most recent poll cycle.",
	})
)

// RecordEventIngested increments the ingest counter.
func RecordEventIngested(source, eventType string) {
	eventsIngested.WithLabelValues(source, eventType).Inc()
}

// RecordRuleEvaluation increments the evaluation counter for a rule.
// Outcome is one of "match", "no_match", "error".
func RecordRuleEvaluation(rule, outcome string) {
	ruleEvaluations.WithLabelValues(rule, outcome).Inc()
}

// RecordAlertRaised increments the alert counter.
func RecordAlertRaised(rule, severity string) {
	alertsRaised.WithLabelValues(rule, severity).Inc()
}

// RecordNotification increments the notification counter for a channel.
// Outcome is "success" or "failure".
func RecordNotification(channel, outcome string) {
	notificationsSent.WithLabelValues(channel, outcome).Inc()
}

// RecordPollCycle records the duration and event count of a poll cycle.
func RecordPollCycle(d time.Duration, eventCount int) {
	pollCycleDuration.Observe(d.Seconds())
	pollCycleEvents.Set(float64(eventCount))
}
