// Package config supplies environment-backed defaults for the CLI flags.
// Values come from the process environment, optionally seeded from a .env
// file, so cron invocations can keep their settings next to the crontab.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mkern/mailcull/internal/rules"
)

// Defaults holds flag default values resolved from the environment.
type Defaults struct {
	ConfigDir string // credential/auth directory
	RulesPath string // rules.yaml location
	AuthMode  string // "gmailctl" or "oauth"
	PageSize  int
	RPS       int
}

// Load reads .env (when present) and the environment. Missing variables
// fall back to the built-in defaults.
func Load() Defaults {
	// A missing .env file is the normal case, not an error.
	_ = godotenv.Load()

	return Defaults{
		ConfigDir: getEnv("MAILCULL_CONFIG_DIR", os.ExpandEnv("$HOME/.mailcull")),
		RulesPath: getEnv("MAILCULL_RULES", rules.DefaultRulesPath()),
		AuthMode:  getEnv("MAILCULL_AUTH", "gmailctl"),
		PageSize:  getEnvInt("MAILCULL_PAGE_SIZE", 500),
		RPS:       getEnvInt("MAILCULL_RPS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
