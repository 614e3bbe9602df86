package task

import (
	"context"
	"encoding/json"
	"testing"
)

func noopRun(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return payload, nil
}

func mustTask(t *testing.T, id string) *Task {
	t.Helper()
	tk, err := New(Config{ID: id}, "tasks/"+id+".go", "Run", noopRun)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", id, err)
	}
	return tk
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	tk := mustTask(t, "send-email")

	if err := r.Register(tk); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, ok := r.Get("send-email")
	if !ok {
		t.Fatal("expected task to be found")
	}
	if got.ID() != "send-email" {
		t.Errorf("ID() = %q, want %q", got.ID(), "send-email")
	}
}

func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	first := mustTask(t, "dup")
	second := mustTask(t, "dup")

	if err := r.Register(first); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(second); err != ErrDuplicateTaskID {
		t.Fatalf("second Register err = %v, want %v", err, ErrDuplicateTaskID)
	}

	// The first registration must be retained, not overwritten.
	got, ok := r.Get("dup")
	if !ok || got != first {
		t.Fatalf("registry retained wrong task after duplicate register")
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected ok=false for missing task")
	}
}

func TestRegistry_List(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if err := r.Register(mustTask(t, id)); err != nil {
			t.Fatalf("Register(%q): %v", id, err)
		}
	}
	if got := r.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	if got := len(r.List()); got != 3 {
		t.Fatalf("len(List()) = %d, want 3", got)
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		cfg     RetryConfig
		wantErr bool
	}{
		{"defaults are valid", DefaultRetryConfig(), false},
		{"zero max attempts", RetryConfig{MaxAttempts: 0, MaxTimeoutInMs: 10, Factor: 2}, true},
		{"max below min timeout", RetryConfig{MaxAttempts: 1, MinTimeoutInMs: 100, MaxTimeoutInMs: 10, Factor: 2}, true},
		{"factor below one", RetryConfig{MaxAttempts: 1, MaxTimeoutInMs: 10, Factor: 0.5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
