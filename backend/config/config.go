package config

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen       string         `yaml:"listen"`
	PublicURL    string         `yaml:"public_url"`
	DatabasePath string         `yaml:"database_path"`
	Session      SessionConfig  `yaml:"session"`
	Security     SecurityConfig `yaml:"security"`
	Logs         LogsConfig     `yaml:"logs"`
	AutoClockOut AutoClockOut   `yaml:"auto_clockout"`
	TLS          TLSConfig      `yaml:"tls"`
}

type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Secret  string        `yaml:"secret"`
}

// SecurityConfig parameterizes the login hardening: brute-force lockout,
// timing normalization, hash cost and TOTP issuer.
type SecurityConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`   // failures before a channel locks
	LockoutWindow     time.Duration `yaml:"lockout_window"` // cooldown once locked
	FailureDelay      time.Duration `yaml:"failure_delay"`  // uniform delay on any auth failure
	BcryptCost        int           `yaml:"bcrypt_cost"`
	TOTPIssuer        string        `yaml:"totp_issuer"`
	RecoveryCodeCount int           `yaml:"recovery_code_count"`
}

type LogsConfig struct {
	Retention time.Duration `yaml:"retention"`
}

type AutoClockOut struct {
	Enabled bool   `yaml:"enabled"`
	Time    string `yaml:"time"` // HH:MM, local time stamped on forgotten punches
}

var C Config

func Load() error {
	// Defaults
	C = Config{
		Listen:       ":8080",
		PublicURL:    "http://localhost:8080",
		DatabasePath: "timeclock.db",
		Session: SessionConfig{
			Timeout: 24 * time.Hour,
		},
		Security: SecurityConfig{
			MaxAttempts:       5,
			LockoutWindow:     15 * time.Minute,
			FailureDelay:      350 * time.Millisecond,
			BcryptCost:        bcrypt.DefaultCost,
			TOTPIssuer:        "TimeClock-Admin",
			RecoveryCodeCount: 8,
		},
		Logs: LogsConfig{
			Retention: 48 * time.Hour,
		},
		AutoClockOut: AutoClockOut{
			Enabled: true,
			Time:    "17:00",
		},
	}

	// Load from YAML if exists
	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return err
		}
	}

	// Environment overrides
	if v := os.Getenv("LISTEN"); v != "" {
		C.Listen = v
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		C.PublicURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		C.DatabasePath = v
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Session.Timeout = d
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		C.Session.Secret = v
	}
	if v := os.Getenv("MAX_LOGIN_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			C.Security.MaxAttempts = n
		}
	}
	if v := os.Getenv("LOCKOUT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Security.LockoutWindow = d
		}
	}
	if v := os.Getenv("FAILURE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Security.FailureDelay = d
		}
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= bcrypt.MinCost && n <= bcrypt.MaxCost {
			C.Security.BcryptCost = n
		}
	}
	if v := os.Getenv("TOTP_ISSUER"); v != "" {
		C.Security.TOTPIssuer = v
	}
	if v := os.Getenv("LOGS_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			C.Logs.Retention = d
		}
	}
	if v := os.Getenv("AUTO_CLOCKOUT_ENABLED"); v == "false" {
		C.AutoClockOut.Enabled = false
	}
	if v := os.Getenv("AUTO_CLOCKOUT_TIME"); v != "" {
		C.AutoClockOut.Time = v
	}
	if v := os.Getenv("TLS_ENABLED"); v == "true" {
		C.TLS.Enabled = true
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		C.TLS.Cert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		C.TLS.Key = v
	}

	return nil
}
