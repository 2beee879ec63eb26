// Package config loads desk-engine settings from .env, the environment and flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the desk service
type Config struct {
	Port            string
	RegistryPath    string
	SessionBaseURL  string
	Automated       bool
	ScannerPaths    []string
	MaxPrintRetries int
	MonitorInterval time.Duration
	Debug           bool
}

// Load reads .env (if present), then environment variables, then
// command line flags. Later sources win.
func Load(args []string) (*Config, error) {
	// Missing .env is the normal case in production
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("SERVER_PORT", "12212"),
		RegistryPath:    os.Getenv("REGISTRY_PATH"),
		SessionBaseURL:  os.Getenv("SESSION_BASE_URL"),
		MaxPrintRetries: 3,
		MonitorInterval: 2 * time.Second,
	}

	var err error
	if cfg.Automated, err = getBool("SCANNER_AUTOMATED"); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getBool("DEBUG"); err != nil {
		return nil, err
	}
	if v := os.Getenv("MAX_PRINT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_PRINT_RETRIES: %q", v)
		}
		cfg.MaxPrintRetries = n
	}
	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid MONITOR_INTERVAL: %q", v)
		}
		cfg.MonitorInterval = d
	}
	cfg.ScannerPaths = splitList(os.Getenv("SCANNER_PATHS"))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			return args[i], nil
		}

		switch arg {
		case "--port":
			if cfg.Port, err = next(); err != nil {
				return nil, err
			}
		case "--registry":
			if cfg.RegistryPath, err = next(); err != nil {
				return nil, err
			}
		case "--session-url":
			if cfg.SessionBaseURL, err = next(); err != nil {
				return nil, err
			}
		case "--scanner":
			v, err := next()
			if err != nil {
				return nil, err
			}
			cfg.ScannerPaths = append(cfg.ScannerPaths, v)
		case "--automated":
			cfg.Automated = true
		case "--debug":
			cfg.Debug = true
		}
	}

	if cfg.SessionBaseURL == "" {
		cfg.SessionBaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = defaultRegistryPath()
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// defaultRegistryPath places the registry next to the executable when that
// directory is writable, otherwise in the working directory or the user
// config directory.
func defaultRegistryPath() string {
	const name = "desk_registry.json"

	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		testFile := filepath.Join(exeDir, ".desk-engine-write-test")
		if f, err := os.Create(testFile); err == nil {
			f.Close()
			os.Remove(testFile)
			return filepath.Join(exeDir, name)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, name)
	}

	var configDir string
	if runtime.GOOS == "windows" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "desk-engine")
	} else if home := os.Getenv("HOME"); home != "" {
		configDir = filepath.Join(home, ".config", "desk-engine")
	}
	if configDir != "" {
		os.MkdirAll(configDir, 0755)
		return filepath.Join(configDir, name)
	}

	return name
}
