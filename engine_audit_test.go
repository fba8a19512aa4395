package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func drain(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d audit events", len(out), n)
		}
	}
	return out
}

func TestAuditEventsForSessionLifecycle(t *testing.T) {
	sink := NewChannelSink(32)
	env := newTestEnv(t, func(cfg *Config) { cfg.Audit.Enabled = true }, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := WithClientIP(context.Background(), "192.0.2.10")

	p := env.register(t, "audited@example.edu", RoleMentor)
	if _, err := env.engine.Login(ctx, "audited@example.edu", "wrong secret"); err == nil {
		t.Fatal("expected login failure")
	}
	pair, err := env.engine.Login(ctx, "audited@example.edu", testSecret)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := env.engine.Logout(ctx, p.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	_, _ = env.engine.Refresh(ctx, pair.RefreshToken)

	events := drain(t, sink, 5)
	wantTypes := []string{AuditRegister, AuditLoginFailure, AuditLoginSuccess, AuditLogout, AuditRefreshRevoked}
	for i, ev := range events {
		if ev.EventType != wantTypes[i] {
			t.Fatalf("event %d: got %q, want %q", i, ev.EventType, wantTypes[i])
		}
		if ev.ID == "" {
			t.Fatalf("event %d has no ID", i)
		}
	}

	failure := events[1]
	if failure.Success || failure.Error != ErrAuthentication.Error() {
		t.Fatalf("unexpected failure event %+v", failure)
	}
	if failure.IP != "192.0.2.10" || failure.Metadata["email"] != "audited@example.edu" {
		t.Fatalf("failure event missing context: %+v", failure)
	}
	if events[2].PrincipalID != p.ID || !events[2].Success {
		t.Fatalf("unexpected success event %+v", events[2])
	}
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	var buf bytes.Buffer
	env := newTestEnv(t, func(cfg *Config) { cfg.Audit.Enabled = true }, func(b *Builder) {
		b.WithAuditSink(NewJSONWriterSink(&buf))
	})
	ctx := context.Background()

	env.register(t, "quiet@example.edu", RoleMentor)
	pair := env.login(t, "quiet@example.edu")
	_, _ = env.engine.Login(ctx, "quiet@example.edu", "hunter2-typo")
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	env.engine.Close()

	out := buf.String()
	for _, secret := range []string{testSecret, "hunter2-typo", pair.RefreshToken, pair.AccessToken} {
		if strings.Contains(out, secret) {
			t.Fatalf("audit output leaked %q", secret)
		}
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 audit lines, got %d", len(lines))
	}
	for _, line := range lines {
		var ev AuditEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("invalid audit json %q: %v", line, err)
		}
	}
}

func TestAuditDisabledDoesNotEmit(t *testing.T) {
	sink := NewChannelSink(4)
	env := newTestEnv(t, nil, func(b *Builder) { b.WithAuditSink(sink) })
	env.register(t, "silent@example.edu", RoleMentor)
	env.login(t, "silent@example.edu")

	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
	if env.engine.AuditDropped() != 0 {
		t.Fatal("expected no drops")
	}
}

func TestMetricsDisabledSnapshotIsEmpty(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "nometrics@example.edu", RoleMentor)
	env.login(t, "nometrics@example.edu")

	snap := env.engine.MetricsSnapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestLatencyHistograms(t *testing.T) {
	env := newTestEnv(t, nil, func(b *Builder) {
		b.WithMetricsEnabled(true).WithLatencyHistograms(true)
	})
	ctx := context.Background()
	env.register(t, "timed@example.edu", RoleMentor)
	pair := env.login(t, "timed@example.edu")
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}

	snap := env.engine.MetricsSnapshot()
	for _, id := range []MetricID{MetricLoginLatency, MetricValidateLatency} {
		var total uint64
		for _, n := range snap.Histograms[id] {
			total += n
		}
		if total != 1 {
			t.Fatalf("histogram %d: expected 1 observation, got %d", id, total)
		}
	}
}
