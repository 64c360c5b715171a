package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"API_URL", "POLL_INTERVAL", "REQUEST_TIMEOUT", "DOWNLOAD_DIR", "LOG_FILE", "LOG_LEVEL"} {
		t.Setenv(envPrefix+key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_url: http://studio.local:8080/\npoll_interval: 2s\ndownload_dir: out\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envPrefix+"POLL_INTERVAL", "10s")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.APIURL != "http://studio.local:8080" {
		t.Fatalf("expected trailing slash trimmed, got %q", s.APIURL)
	}
	if s.PollInterval != 10*time.Second {
		t.Fatalf("expected env override for poll interval, got %s", s.PollInterval)
	}
	if s.DownloadDir != "out" {
		t.Fatalf("unexpected download dir %q", s.DownloadDir)
	}
	if s.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("expected default request timeout, got %s", s.RequestTimeout)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Fatalf("expected poll_interval error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	s, err := Normalize(Settings{APIURL: " https://api.example.com/ ", PollInterval: 100 * time.Millisecond, LogLevel: "DEBUG"})
	if err != nil {
		t.Fatal(err)
	}
	if s.APIURL != "https://api.example.com" {
		t.Fatalf("unexpected api url %q", s.APIURL)
	}
	if s.PollInterval != MinPollInterval {
		t.Fatalf("expected poll interval clamped to %s, got %s", MinPollInterval, s.PollInterval)
	}
	if s.LogLevel != "debug" || s.DownloadDir != DefaultDownloadDir {
		t.Fatalf("unexpected normalized settings %+v", s)
	}

	for _, bad := range []string{"ftp://host", "http://", "localhost:5000"} {
		if _, err := Normalize(Settings{APIURL: bad}); err == nil {
			t.Fatalf("expected error for api url %q", bad)
		}
	}

	if s, err := Normalize(Settings{LogLevel: " Warning "}); err != nil || s.LogLevel != "warning" {
		t.Fatalf("expected warning to be accepted, got %+v, %v", s, err)
	}
	if _, err := Normalize(Settings{LogLevel: "bogus"}); err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: bogus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected load to reject log_level bogus")
	}
}

func TestUpdateWritesReadableFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := Defaults()
	in.APIURL = "http://10.0.0.2:5000"
	in.PollInterval = 3 * time.Second

	res, err := Update(UpdateOptions{ConfigPath: path, Settings: in})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.ConfigPath != path {
		t.Fatalf("unexpected config path %q", res.ConfigPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "poll_interval: 3s") {
		t.Fatalf("expected human readable duration, got:\n%s", data)
	}

	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.APIURL != in.APIURL || back.PollInterval != in.PollInterval {
		t.Fatalf("unexpected reloaded settings %+v", back)
	}
}

func TestDefaultPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := filepath.Join(dir, "contentgen", "config.yaml")
	if got := DefaultPath(); got != want {
		t.Fatalf("DefaultPath() = %q, want %q", got, want)
	}
}
