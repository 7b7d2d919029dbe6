package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockChecker{}).
		WithCoordinator(&mockDBPinger{}).
		WithDescriptionModel(&mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentEngine, ComponentCoordinator, ComponentDescriptionModel} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_EngineOnly(t *testing.T) {
	r := New(&mockChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the engine check, got %v", r.Checks)
	}
}

func TestCheck_EngineDown(t *testing.T) {
	svc := New(&mockChecker{err: errors.New("conn refused")}).WithCoordinator(&mockDBPinger{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[ComponentEngine] != CheckError {
		t.Errorf("expected engine %q, got %q", CheckError, r.Checks[ComponentEngine])
	}
	if r.Checks[ComponentCoordinator] != CheckOK {
		t.Errorf("expected coordinator %q, got %q", CheckOK, r.Checks[ComponentCoordinator])
	}
}

func TestCheck_CoordinatorDown(t *testing.T) {
	svc := New(&mockChecker{}).WithCoordinator(&mockDBPinger{err: errors.New("redis down")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCoordinator] != CheckError {
		t.Error("expected coordinator error")
	}
}

func TestCheck_DescriptionModelDown(t *testing.T) {
	svc := New(&mockChecker{}).WithDescriptionModel(&mockChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentDescriptionModel] != CheckError {
		t.Error("expected description model error")
	}
}
