package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"contentgen/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func settingsPath(raw string) string {
	if p := strings.TrimSpace(raw); p != "" {
		return p
	}
	return config.DefaultPath()
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default "+config.DefaultPath()+")")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := settingsPath(*configPath)
	s, err := config.Load(path)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(config.UpdateResult{ConfigPath: path, Settings: s})
	}
	printf("config: %s\n", path)
	printSettings(s)
	return nil
}

func printSettings(s config.Settings) {
	printLine(kv("api_url", s.APIURL))
	printLine(kv("poll_interval", s.PollInterval.String()))
	printLine(kv("request_timeout", s.RequestTimeout.String()))
	printLine(kv("download_dir", s.DownloadDir))
	printLine(kv("log_file", defaultIfEmpty(s.LogFile, "(disabled)")))
	printLine(kv("log_level", s.LogLevel))
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default "+config.DefaultPath()+")")
	apiURL := fs.String("api-url", "", "backend base URL (empty keeps current)")
	pollInterval := fs.Duration("poll-interval", -1, "job poll interval, min 1s (-1 keeps current)")
	requestTimeout := fs.Duration("request-timeout", -1, "per-request timeout, > 0 (-1 keeps current)")
	downloadDir := fs.String("download-dir", "", "video download directory (empty keeps current)")
	logFile := fs.String("log-file", "", "studio log file, \"none\" disables (empty keeps current)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error (empty keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := settingsPath(*configPath)
	// Start from the file alone so environment overrides are not persisted.
	s, err := config.ReadFile(path)
	if err != nil {
		return err
	}

	if v := strings.TrimSpace(*apiURL); v != "" {
		s.APIURL = v
	}
	if *pollInterval != -1 {
		if *pollInterval < config.MinPollInterval {
			return fmt.Errorf("--poll-interval must be >= %s", config.MinPollInterval)
		}
		s.PollInterval = *pollInterval
	}
	if *requestTimeout != -1 {
		if *requestTimeout <= 0 {
			return errors.New("--request-timeout must be > 0")
		}
		s.RequestTimeout = *requestTimeout
	}
	if v := strings.TrimSpace(*downloadDir); v != "" {
		s.DownloadDir = v
	}
	switch v := strings.TrimSpace(*logFile); v {
	case "":
	case "none":
		s.LogFile = ""
	default:
		s.LogFile = v
	}
	if v := strings.TrimSpace(*logLevel); v != "" {
		s.LogLevel = v
	}

	res, err := config.Update(config.UpdateOptions{ConfigPath: path, Settings: s})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(res)
	}
	printf("updated settings in %s\n", res.ConfigPath)
	printSettings(res.Settings)
	return nil
}

func printSettingsUsage() {
	printLine("settings commands:")
	printLine("  contentgen settings show [--config <path>] [--json]")
	printLine("  contentgen settings set [--config <path>] [--api-url <url>] [--poll-interval 5s]")
	printLine("                          [--request-timeout 30s] [--download-dir <dir>]")
	printLine("                          [--log-file <path>|none] [--log-level warn] [--json]")
}
