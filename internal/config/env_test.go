package config

import "testing"

func TestEnv_DevPort(t *testing.T) {
	tests := []struct {
		name string
		port string
		want int
	}{
		{"numeric", "9000", 9001},
		{"absent", "", DefaultFrontendPort + 1},
		{"non-numeric", "http", DefaultFrontendPort + 1},
		{"negative", "-1", DefaultFrontendPort + 1},
		{"too large", "70000", DefaultFrontendPort + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Env{FrontendPort: tt.port}
			if got := e.DevPort(); got != tt.want {
				t.Errorf("DevPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseEnv_Defaults(t *testing.T) {
	t.Setenv("APP_HOST", "")
	t.Setenv("FRONTEND_PORT", "")
	t.Setenv("REPLAYVIEW_BUILD", "")

	e := ParseEnv()
	if e.Host != DefaultHost {
		t.Errorf("Expected default host, got %q", e.Host)
	}
	if e.DevPort() != DefaultFrontendPort+1 {
		t.Errorf("Expected default dev port, got %d", e.DevPort())
	}
	if e.PlayerMode() {
		t.Error("Player mode should be off by default")
	}
}

func TestParseEnv_Player(t *testing.T) {
	t.Setenv("REPLAYVIEW_BUILD", "player")

	e := ParseEnv()
	if !e.PlayerMode() {
		t.Error("Expected player mode")
	}
}

func TestParseEnv_HostOverride(t *testing.T) {
	t.Setenv("APP_HOST", "0.0.0.0")

	e := ParseEnv()
	if e.Host != "0.0.0.0" {
		t.Errorf("Expected APP_HOST override, got %q", e.Host)
	}
}
