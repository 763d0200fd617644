package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/avatax16/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}

	return path
}

// noEnvFile points Load at a dotenv file that does not exist.
func noEnvFile(t *testing.T) config.Option {
	return config.WithEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AVATAX_ACCOUNT_ID", "1100000001")
	t.Setenv("AVATAX_LICENSE_KEY", "env-key")
	t.Setenv("AVATAX_TIMEOUT_SECONDS", "5")
	t.Setenv("AVATAX_THROTTLE_RPS", "20")

	cfg, err := config.Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := &config.Config{
		BaseURL:               "https://sandbox-rest.avatax.com",
		AccountID:             "1100000001",
		CompanyCode:           "DEFAULT",
		LicenseKey:            "env-key",
		TimeoutSeconds:        5,
		ConnectTimeoutSeconds: 10,
		LogLevel:              "info",
		LogFormat:             "text",
		ThrottleRPS:           20,
		Timeout:               5 * time.Second,
		ConnectTimeout:        10 * time.Second,
	}
	if diff := cmp.Diff(exp, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "avatax.yaml", strings.Join([]string{
		"base_url: https://file.example.com",
		"account_id: file-account",
		"company_code: FILECO",
		"license_key: file-key",
		"log_level: debug",
	}, "\n"))

	dotenv := writeFile(t, ".env", strings.Join([]string{
		"AVATAX_COMPANY_CODE=DOTENVCO",
		"AVATAX_LICENSE_KEY=dotenv-key",
		"UNRELATED=ignored",
	}, "\n"))

	t.Setenv("AVATAX_LICENSE_KEY", "env-key")

	cfg, err := config.Load(config.WithConfigFile(file), config.WithEnvFile(dotenv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := []string{cfg.BaseURL, cfg.AccountID, cfg.CompanyCode, cfg.LicenseKey, cfg.LogLevel}
	exp := []string{"https://file.example.com", "file-account", "DOTENVCO", "env-key", "debug"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("precedence mismatch (-want +got):\n%s", diff)
	}

	if _, ok := os.LookupEnv("AVATAX_COMPANY_CODE"); ok {
		t.Error("env file leaked into the process environment")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]struct {
		env    map[string]string
		opts   func(t *testing.T) []config.Option
		expErr string
	}{
		"missingCredentials": {
			expErr: "AccountID",
		},
		"badURL": {
			env: map[string]string{
				"AVATAX_ACCOUNT_ID":  "1",
				"AVATAX_LICENSE_KEY": "k",
				"AVATAX_BASE_URL":    "not a url",
			},
			expErr: "BaseURL",
		},
		"badLogLevel": {
			env: map[string]string{
				"AVATAX_ACCOUNT_ID":  "1",
				"AVATAX_LICENSE_KEY": "k",
				"AVATAX_LOG_LEVEL":   "chatty",
			},
			expErr: "LogLevel",
		},
		"negativeTimeout": {
			env: map[string]string{
				"AVATAX_ACCOUNT_ID":      "1",
				"AVATAX_LICENSE_KEY":     "k",
				"AVATAX_TIMEOUT_SECONDS": "-1",
			},
			expErr: "TimeoutSeconds",
		},
		"missingConfigFile": {
			opts: func(t *testing.T) []config.Option {
				return []config.Option{config.WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))}
			},
			expErr: "read config file",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			opts := []config.Option{noEnvFile(t)}
			if tc.opts != nil {
				opts = append(opts, tc.opts(t)...)
			}

			_, err := config.Load(opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.expErr) {
				t.Errorf("error %q does not mention %q", err, tc.expErr)
			}
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	tests := map[string]struct {
		level    string
		format   string
		expDebug bool
		expJSON  bool
	}{
		"textInfo":  {level: "info", format: "text"},
		"jsonDebug": {level: "debug", format: "json", expDebug: true, expJSON: true},
		"badLevel":  {level: "loud", format: "text"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := config.Config{LogLevel: tc.level, LogFormat: tc.format}
			log := cfg.Logger(&buf)

			log.Debug("debug line")
			log.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tc.expDebug {
				t.Errorf("debug logged = %t, want %t:\n%s", got, tc.expDebug, out)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing:\n%s", out)
			}
			if got := strings.HasPrefix(out, "{"); got != tc.expJSON {
				t.Errorf("json output = %t, want %t:\n%s", got, tc.expJSON, out)
			}
		})
	}
}
