package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TASKDECK_SERVER_URL", "")
	t.Setenv("TASKDECK_WS_URL", "")
	t.Setenv("TASKDECK_STAGES", "")

	cfg := FromEnv()
	if cfg.ServerURL != "http://localhost:8743" {
		t.Fatalf("unexpected server url: %s", cfg.ServerURL)
	}
	if cfg.WSURL != "ws://localhost:8743/ws/updates" {
		t.Fatalf("unexpected ws url: %s", cfg.WSURL)
	}
	if cfg.RequestTimeoutSec != 8 {
		t.Fatalf("unexpected request timeout: %d", cfg.RequestTimeoutSec)
	}
	stages := cfg.Stages()
	want := []string{"plan", "build", "test", "review", "document"}
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(stages))
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

func TestDeriveWSURL(t *testing.T) {
	cases := map[string]string{
		"https://board.example.com": "wss://board.example.com/ws/updates",
		"http://localhost:8743/":    "ws://localhost:8743/ws/updates",
		"board.internal:9000":       "ws://board.internal:9000/ws/updates",
	}
	for input, want := range cases {
		if got := deriveWSURL(input); got != want {
			t.Fatalf("deriveWSURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStagesSkipsEmptyEntries(t *testing.T) {
	t.Setenv("TASKDECK_STAGES", " Plan ,, BUILD ,test")
	cfg := FromEnv()
	stages := cfg.Stages()
	want := []string{"plan", "build", "test"}
	if len(stages) != len(want) {
		t.Fatalf("expected %d stages, got %v", len(want), stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

func TestIntOrDefaultRejectsInvalid(t *testing.T) {
	t.Setenv("TASKDECK_REQUEST_TIMEOUT_SECONDS", "not-a-number")
	if cfg := FromEnv(); cfg.RequestTimeoutSec != 8 {
		t.Fatalf("expected fallback timeout, got %d", cfg.RequestTimeoutSec)
	}
	t.Setenv("TASKDECK_REQUEST_TIMEOUT_SECONDS", "0")
	if cfg := FromEnv(); cfg.RequestTimeoutSec != 8 {
		t.Fatalf("expected fallback for non-positive value, got %d", cfg.RequestTimeoutSec)
	}
}
