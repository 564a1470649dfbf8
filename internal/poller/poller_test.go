// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/detection"
	"github.com/vigilsec/vigil/internal/models"
)

// mockEventSource serves a fixed event set and can fail.
type mockEventSource struct {
	mu      sync.Mutex
	events  []models.Event
	failErr error
	fetches int
}

func (m *mockEventSource) RecentEvents(_ context.Context, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.failErr != nil {
		return nil, m.failErr
	}
	if len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

func (m *mockEventSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// mockProcessor counts processed events.
type mockProcessor struct {
	mu        sync.Mutex
	processed []uuid.UUID
	failErr   error
}

func (m *mockProcessor) ProcessEvent(_ context.Context, event *models.Event) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, event.ID)
	return nil, m.failErr
}

func (m *mockProcessor) processedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.processed)
}

func TestPoller_FirstCycleRunsImmediately(t *testing.T) {
	source := &mockEventSource{events: []models.Event{
		{ID: uuid.New(), Source: "auth-service", EventType: "auth"},
	}}
	processor := &mockProcessor{}

	p := New(source, processor, Config{Interval: time.Hour, FetchLimit: 50})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.RunWithContext(ctx) }()

	// The first cycle runs before the first tick; an hour-long
	// interval guarantees no ticks fire during the test.
	waitFor(t, func() bool { return processor.processedCount() == 1 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPoller_FetchFailureDoesNotKillLoop(t *testing.T) {
	source := &mockEventSource{failErr: errors.New("connection refused")}
	processor := &mockProcessor{}

	p := New(source, processor, Config{Interval: time.Second, FetchLimit: 50})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.RunWithContext(ctx) }()

	waitFor(t, func() bool { return source.fetchCount() >= 1 })

	// The loop survives the failed cycle.
	select {
	case err := <-done:
		t.Fatalf("loop exited after fetch failure: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	p.Stop()
	if err := <-done; err != nil {
		t.Fatalf("expected nil after Stop, got %v", err)
	}
}

func TestPoller_ProcessorErrorDoesNotKillLoop(t *testing.T) {
	source := &mockEventSource{events: []models.Event{
		{ID: uuid.New(), Source: "auth-service", EventType: "auth"},
	}}
	processor := &mockProcessor{failErr: errors.New("rule errors")}

	p := New(source, processor, Config{Interval: time.Second, FetchLimit: 50})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.RunWithContext(ctx) }()

	waitFor(t, func() bool { return processor.processedCount() >= 1 })

	select {
	case err := <-done:
		t.Fatalf("loop exited after processor error: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	p.Stop()
	<-done
}

func TestPoller_RepeatedCyclesReevaluate(t *testing.T) {
	source := &mockEventSource{events: []models.Event{
		{ID: uuid.New(), Source: "auth-service", EventType: "auth"},
	}}
	processor := &mockProcessor{}

	p := New(source, processor, Config{Interval: time.Second, FetchLimit: 50})
	// Drive cycles directly instead of waiting out the ticker.
	p.runCycle(context.Background())
	p.runCycle(context.Background())

	if processor.processedCount() != 2 {
		t.Fatalf("expected the event to be re-evaluated each cycle, got %d evaluations", processor.processedCount())
	}
}

// recordingAlertStore satisfies detection.AlertStore for end-to-end
// cycle tests.
type recordingAlertStore struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (s *recordingAlertStore) InsertAlert(_ context.Context, alert models.Alert) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert.ID = uuid.New()
	s.alerts = append(s.alerts, alert)
	return alert, nil
}

func TestPoller_CycleRaisesAlertsEndToEnd(t *testing.T) {
	failedLogin := func(ip string) json.RawMessage {
		return json.RawMessage(`{"action": "login_failed", "account": "bob", "ip": "` + ip + `"}`)
	}
	source := &mockEventSource{events: []models.Event{
		{ID: uuid.New(), Source: "auth-service", EventType: "auth", Payload: failedLogin("10.0.0.1")},
		{ID: uuid.New(), Source: "auth-service", EventType: "auth", Payload: failedLogin("10.0.0.2")},
		{ID: uuid.New(), Source: "netflow", EventType: "network", Payload: json.RawMessage(`{"bytes": 42}`)},
	}}

	store := &recordingAlertStore{}
	engine := detection.NewEngine(store)
	engine.RegisterRule(detection.NewBruteForceRule())
	engine.RegisterRule(detection.NewGeoMismatchRule())

	p := New(source, engine, Config{Interval: time.Second, FetchLimit: 50})
	p.runCycle(context.Background())

	if len(store.alerts) != 2 {
		t.Fatalf("expected exactly 2 alerts from one cycle, got %d", len(store.alerts))
	}
	for i, alert := range store.alerts {
		if alert.RuleName != detection.RuleNameBruteForce {
			t.Errorf("alert %d rule = %q, want %q", i, alert.RuleName, detection.RuleNameBruteForce)
		}
		if alert.EventID != source.events[i].ID {
			t.Errorf("alert %d event_id = %s, want %s", i, alert.EventID, source.events[i].ID)
		}
	}
	networkID := source.events[2].ID
	for _, alert := range store.alerts {
		if alert.EventID == networkID {
			t.Error("non-auth event must not raise alerts")
		}
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	p := New(&mockEventSource{}, &mockProcessor{}, Config{Interval: time.Second})
	p.Stop()
	p.Stop()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
