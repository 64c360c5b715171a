package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"contentgen/internal/localfs"
	"contentgen/internal/logging"
)

const (
	DefaultAPIURL         = "http://localhost:5000"
	DefaultPollInterval   = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDownloadDir    = "downloads"
	DefaultLogLevel       = "warn"

	MinPollInterval = time.Second

	appDirName     = "contentgen"
	configFileName = "config.yaml"
	envPrefix      = "CONTENTGEN_"
)

// Settings are the resolved client settings.
type Settings struct {
	APIURL         string        `json:"api_url"`
	PollInterval   time.Duration `json:"poll_interval"`
	RequestTimeout time.Duration `json:"request_timeout"`
	DownloadDir    string        `json:"download_dir"`
	LogFile        string        `json:"log_file,omitempty"`
	LogLevel       string        `json:"log_level"`
}

// fileSettings is the on-disk YAML shape. Durations are kept as strings so
// the file stays readable ("5s", "1m").
type fileSettings struct {
	APIURL         string `yaml:"api_url,omitempty"`
	PollInterval   string `yaml:"poll_interval,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	DownloadDir    string `yaml:"download_dir,omitempty"`
	LogFile        string `yaml:"log_file,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
}

func Defaults() Settings {
	return Settings{
		APIURL:         DefaultAPIURL,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: DefaultRequestTimeout,
		DownloadDir:    DefaultDownloadDir,
		LogLevel:       DefaultLogLevel,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/contentgen/config.yaml, falling back
// to ~/.config/contentgen/config.yaml.
func DefaultPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, appDirName, configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(".", configFileName)
	}
	return filepath.Join(home, ".config", appDirName, configFileName)
}

func normalizePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultPath()
	}
	return p
}

// Load resolves settings from defaults, the YAML file at path (missing file
// means defaults), a .env file in the working directory and CONTENTGEN_*
// environment variables, in increasing precedence.
func Load(path string) (Settings, error) {
	s, err := ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	// .env never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("load .env: %w", err)
	}

	s, err = applyEnv(s)
	if err != nil {
		return Settings{}, err
	}
	return Normalize(s)
}

// ReadFile reads only the YAML layer on top of defaults.
func ReadFile(path string) (Settings, error) {
	path = normalizePath(path)
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw fileSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return merge(s, raw, "config "+path)
}

func merge(base Settings, raw fileSettings, source string) (Settings, error) {
	out := base
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		out.APIURL = v
	}
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: poll_interval: %w", source, err)
		}
		out.PollInterval = d
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: request_timeout: %w", source, err)
		}
		out.RequestTimeout = d
	}
	if v := strings.TrimSpace(raw.DownloadDir); v != "" {
		out.DownloadDir = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		out.LogFile = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		out.LogLevel = v
	}
	return out, nil
}

func applyEnv(s Settings) (Settings, error) {
	raw := fileSettings{
		APIURL:         os.Getenv(envPrefix + "API_URL"),
		PollInterval:   os.Getenv(envPrefix + "POLL_INTERVAL"),
		RequestTimeout: os.Getenv(envPrefix + "REQUEST_TIMEOUT"),
		DownloadDir:    os.Getenv(envPrefix + "DOWNLOAD_DIR"),
		LogFile:        os.Getenv(envPrefix + "LOG_FILE"),
		LogLevel:       os.Getenv(envPrefix + "LOG_LEVEL"),
	}
	return merge(s, raw, "environment")
}

// Normalize fills defaults and validates the API URL and log level.
func Normalize(raw Settings) (Settings, error) {
	norm := raw
	norm.APIURL = strings.TrimRight(strings.TrimSpace(norm.APIURL), "/")
	if norm.APIURL == "" {
		norm.APIURL = DefaultAPIURL
	}
	u, err := url.Parse(norm.APIURL)
	if err != nil {
		return Settings{}, fmt.Errorf("api url %q: %w", norm.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Settings{}, fmt.Errorf("api url %q must use http or https", norm.APIURL)
	}
	if u.Host == "" {
		return Settings{}, fmt.Errorf("api url %q has no host", norm.APIURL)
	}

	if norm.PollInterval <= 0 {
		norm.PollInterval = DefaultPollInterval
	}
	if norm.PollInterval < MinPollInterval {
		norm.PollInterval = MinPollInterval
	}
	if norm.RequestTimeout <= 0 {
		norm.RequestTimeout = DefaultRequestTimeout
	}
	norm.DownloadDir = strings.TrimSpace(norm.DownloadDir)
	if norm.DownloadDir == "" {
		norm.DownloadDir = DefaultDownloadDir
	}
	norm.LogFile = strings.TrimSpace(norm.LogFile)
	norm.LogLevel = strings.ToLower(strings.TrimSpace(norm.LogLevel))
	if norm.LogLevel == "" {
		norm.LogLevel = DefaultLogLevel
	}
	if _, err := logging.ParseLevel(norm.LogLevel); err != nil {
		return Settings{}, fmt.Errorf("log_level: %w", err)
	}
	return norm, nil
}

type UpdateOptions struct {
	ConfigPath string
	Settings   Settings
}

type UpdateResult struct {
	ConfigPath string   `json:"config_path"`
	Settings   Settings `json:"settings"`
}

// Update normalizes and writes settings to the YAML file.
func Update(opts UpdateOptions) (UpdateResult, error) {
	path := normalizePath(opts.ConfigPath)
	norm, err := Normalize(opts.Settings)
	if err != nil {
		return UpdateResult{}, err
	}
	raw := fileSettings{
		APIURL:         norm.APIURL,
		PollInterval:   norm.PollInterval.String(),
		RequestTimeout: norm.RequestTimeout.String(),
		DownloadDir:    norm.DownloadDir,
		LogFile:        norm.LogFile,
		LogLevel:       norm.LogLevel,
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("marshal config: %w", err)
	}
	if err := localfs.WriteBytes(path, data); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{ConfigPath: path, Settings: norm}, nil
}
