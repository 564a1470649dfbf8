// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/vigilsec/vigil/internal/logging"
	"github.com/vigilsec/vigil/internal/metrics"
	"github.com/vigilsec/vigil/internal/models"
)

// Engine coordinates rule evaluation, alert persistence, and
// notification delivery.
type Engine struct {
	alertStore AlertStore

	mu        sync.RWMutex
	rules     []Rule
	ruleIndex map[string]int
	notifiers []Notifier
	enabled   bool
}

// NewEngine creates a detection engine backed by the given alert store.
func NewEngine(alertStore AlertStore) *Engine {
	return &Engine{
		alertStore: alertStore,
		rules:      make([]Rule, 0),
		ruleIndex:  make(map[string]int),
		notifiers:  make([]Notifier, 0),
		enabled:    true,
	}
}

// RegisterRule adds a rule to the engine. Rules are evaluated in
// registration order. A rule registered under an existing name
// replaces the previous one in place, keeping its original position.
func (e *Engine) RegisterRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i, ok := e.ruleIndex[rule.Name()]; ok {
		e.rules[i] = rule
	} else {
		e.ruleIndex[rule.Name()] = len(e.rules)
		e.rules = append(e.rules, rule)
	}
	logging.Info().Str("rule", rule.Name()).Msg("Registered detection rule")
}

// RegisterNotifier adds a notification channel to the engine.
func (e *Engine) RegisterNotifier(notifier Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifiers = append(e.notifiers, notifier)
	logging.Info().Str("notifier", notifier.Name()).Msg("Registered notifier")
}

// SetEnabled toggles the whole engine. A disabled engine processes no
// events.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// ProcessEvent evaluates one event against every enabled rule. Each
// finding is persisted before any notification for it is attempted.
// Rule failures are isolated: an erroring or panicking rule counts as
// no finding and the remaining rules still run. The returned error
// aggregates rule failures for logging; persisted alerts are returned
// regardless.
func (e *Engine) ProcessEvent(ctx context.Context, event *models.Event) ([]models.Alert, error) {
	rules := e.enabledRules()
	if len(rules) == 0 {
		return nil, nil
	}

	var alerts []models.Alert
	var errs []error

	for _, rule := range rules {
		finding, err := e.runSingleRule(ctx, rule, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if finding == nil {
			metrics.RecordRuleEvaluation(rule.Name(), "no_match")
			continue
		}
		metrics.RecordRuleEvaluation(rule.Name(), "match")

		stored, err := e.alertStore.InsertAlert(ctx, newAlert(event.ID, finding))
		if err != nil {
			logging.Error().Err(err).
				Str("rule", finding.RuleName).
				Str("event_id", event.ID.String()).
				Msg("Failed to persist alert")
			errs = append(errs, err)
			continue
		}
		metrics.RecordAlertRaised(stored.RuleName, string(stored.Severity))
		alerts = append(alerts, stored)

		e.notify(ctx, &stored, event)
	}

	if len(errs) > 0 {
		return alerts, fmt.Errorf("detection errors: %v", errs)
	}
	return alerts, nil
}

// enabledRules snapshots the enabled rules under the read lock,
// preserving registration order.
func (e *Engine) enabledRules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.enabled {
		return nil
	}

	rules := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Enabled() {
			rules = append(rules, r)
		}
	}
	return rules
}

// runSingleRule evaluates one rule, converting panics into errors so a
// misbehaving rule cannot take down the cycle.
func (e *Engine) runSingleRule(ctx context.Context, rule Rule, event *models.Event) (finding *Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordRuleEvaluation(rule.Name(), "error")
			finding = nil
			err = fmt.Errorf("%s: rule panicked: %v", rule.Name(), r)
		}
	}()

	finding, err = rule.Check(ctx, event)
	if err != nil {
		metrics.RecordRuleEvaluation(rule.Name(), "error")
		return nil, fmt.Errorf("%s: %w", rule.Name(), err)
	}
	return finding, nil
}

// notify delivers one alert to every enabled channel. Channels are
// independent; one failure never suppresses the others.
func (e *Engine) notify(ctx context.Context, alert *models.Alert, event *models.Event) {
	e.mu.RLock()
	notifiers := make([]Notifier, len(e.notifiers))
	copy(notifiers, e.notifiers)
	e.mu.RUnlock()

	for _, n := range notifiers {
		if !n.Enabled() {
			continue
		}
		if err := n.Send(ctx, alert, event); err != nil {
			metrics.RecordNotification(n.Name(), "failure")
			logging.Error().Err(err).
				Str("notifier", n.Name()).
				Str("rule", alert.RuleName).
				Msg("Notification failed")
			continue
		}
		metrics.RecordNotification(n.Name(), "success")
	}
}
