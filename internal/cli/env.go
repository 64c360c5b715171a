package cli

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"contentgen/internal/api"
	"contentgen/internal/config"
	"contentgen/internal/logging"
)

var stderr io.Writer = os.Stderr

// commonFlags are accepted by every command that talks to the backend.
type commonFlags struct {
	apiURL   string
	config   string
	jsonOut  bool
	logLevel string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.apiURL, "api-url", "", "backend base URL (overrides config)")
	fs.StringVar(&c.config, "config", "", "config file path (default "+config.DefaultPath()+")")
	fs.BoolVar(&c.jsonOut, "json", false, "print JSON output")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	return c
}

func (c *commonFlags) settings() (config.Settings, error) {
	s, err := config.Load(strings.TrimSpace(c.config))
	if err != nil {
		return config.Settings{}, err
	}
	if v := strings.TrimSpace(c.apiURL); v != "" {
		s.APIURL = v
	}
	if v := strings.TrimSpace(c.logLevel); v != "" {
		s.LogLevel = v
	}
	return config.Normalize(s)
}

type commandEnv struct {
	settings config.Settings
	client   *api.Client
	log      *slog.Logger
	jsonOut  bool
}

// open resolves settings and builds a client that logs to stderr.
func (c *commonFlags) open() (commandEnv, error) {
	s, err := c.settings()
	if err != nil {
		return commandEnv{}, err
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return commandEnv{}, err
	}
	log := logging.New(stderr, level, logging.FormatText)
	return commandEnv{
		settings: s,
		client:   api.New(api.Options{BaseURL: s.APIURL, Timeout: s.RequestTimeout, Logger: log}),
		log:      log,
		jsonOut:  c.jsonOut,
	}, nil
}

// parseArgs parses flags that may appear before or after positional
// arguments and returns the positionals in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
