// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package services wraps Vigil's long-running components as
// suture.Service implementations.
package services

import (
	"context"
)

// DetectionPoller matches the poller's RunWithContext method. Using an
// interface here keeps the wrapper free of a direct poller import and
// lets tests substitute a fake.
type DetectionPoller interface {
	// RunWithContext runs the poll loop until the context is canceled.
	RunWithContext(ctx context.Context) error
}

// PollerService wraps the detection poller as a supervised service.
// The supervisor restarts it if the loop ever exits unexpectedly.
type PollerService struct {
	poller DetectionPoller
	name   string
}

// NewPollerService creates a poller service wrapper.
func NewPollerService(poller DetectionPoller) *PollerService {
	return &PollerService{
		poller: poller,
		name:   "detection-poller",
	}
}

// Serve implements suture.Service.
func (p *PollerService) Serve(ctx context.Context) error {
	return p.poller.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (p *PollerService) String() string {
	return p.name
}
