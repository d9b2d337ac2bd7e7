package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAILCULL_CONFIG_DIR", "")
	t.Setenv("MAILCULL_RULES", "")
	t.Setenv("MAILCULL_PAGE_SIZE", "")
	t.Setenv("MAILCULL_RPS", "")
	t.Setenv("MAILCULL_AUTH", "")

	d := Load()
	if d.PageSize != 500 || d.RPS != 4 {
		t.Fatalf("unexpected numeric defaults: %+v", d)
	}
	if d.AuthMode != "gmailctl" {
		t.Fatalf("auth mode %q, want gmailctl", d.AuthMode)
	}
	if d.ConfigDir == "" || d.RulesPath == "" {
		t.Fatalf("empty path defaults: %+v", d)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MAILCULL_PAGE_SIZE", "100")
	t.Setenv("MAILCULL_RPS", "2")
	t.Setenv("MAILCULL_AUTH", "oauth")

	d := Load()
	if d.PageSize != 100 || d.RPS != 2 || d.AuthMode != "oauth" {
		t.Fatalf("overrides not applied: %+v", d)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("MAILCULL_PAGE_SIZE", "not-a-number")
	t.Setenv("MAILCULL_RPS", "-3")

	d := Load()
	if d.PageSize != 500 || d.RPS != 4 {
		t.Fatalf("bad values should fall back: %+v", d)
	}
}
