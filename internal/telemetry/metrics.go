package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics holds the session core's counters. A nil *AuthMetrics is a
// valid no-op receiver so the service can run without telemetry wired.
type AuthMetrics struct {
	logins          metric.Int64Counter
	refreshes       metric.Int64Counter
	reuseDetected   metric.Int64Counter
	massRevocations metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on provider's meter.
func NewAuthMetrics(provider metric.MeterProvider) (*AuthMetrics, error) {
	meter := provider.Meter("identity.auth")
	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts, by outcome"))
	if err != nil {
		return nil, err
	}
	refreshes, err := meter.Int64Counter("auth.refreshes",
		metric.WithDescription("Refresh attempts, by outcome"))
	if err != nil {
		return nil, err
	}
	reuse, err := meter.Int64Counter("auth.token_reuse_detected",
		metric.WithDescription("Refresh secrets replayed outside the grace window"))
	if err != nil {
		return nil, err
	}
	mass, err := meter.Int64Counter("auth.mass_revocations",
		metric.WithDescription("Revoke-all operations per user"))
	if err != nil {
		return nil, err
	}
	return &AuthMetrics{logins: logins, refreshes: refreshes, reuseDetected: reuse, massRevocations: mass}, nil
}

// RecordLogin counts one login attempt.
func (m *AuthMetrics) RecordLogin(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// RecordRefresh counts one refresh attempt.
func (m *AuthMetrics) RecordRefresh(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// RecordReuseDetected counts one out-of-grace replay. These indicate either a
// real compromise or a grace-window misconfiguration; alert on them.
func (m *AuthMetrics) RecordReuseDetected(ctx context.Context) {
	if m == nil {
		return
	}
	m.reuseDetected.Add(ctx, 1)
}

// RecordMassRevocation counts one revoke-all.
func (m *AuthMetrics) RecordMassRevocation(ctx context.Context) {
	if m == nil {
		return
	}
	m.massRevocations.Add(ctx, 1)
}
