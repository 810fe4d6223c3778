package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// DefaultObserverAddr is where an observer server is expected when
// perf.yaml does not say otherwise.
const DefaultObserverAddr = "localhost:9999"

// Config represents the optional perf.yaml configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Observer ObserverConfig `yaml:"observer"`
	Export   ExportConfig   `yaml:"export"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// ObserverConfig locates the observer server to poll.
type ObserverConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// ExportConfig contains OTLP export settings.
type ExportConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Service  string `yaml:"service,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root           string
	ModulePath     string
	AppName        string
	ObserverAddr   string
	ExportEndpoint string
	ExportService  string
}

// LoadOptional reads perf.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, "perf.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read perf.yaml: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse perf.yaml: %w", err)
	}

	return &cfg, nil
}

// Resolve loads perf.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	addr := strings.TrimSpace(cfg.Observer.Addr)
	if addr == "" {
		addr = DefaultObserverAddr
	}
	if err := validateAddr(addr); err != nil {
		return nil, err
	}

	service := strings.TrimSpace(cfg.Export.Service)
	if service == "" {
		service = appName
	}

	return &Resolved{
		Root:           dir,
		ModulePath:     modulePath,
		AppName:        appName,
		ObserverAddr:   addr,
		ExportEndpoint: strings.TrimSpace(cfg.Export.Endpoint),
		ExportService:  service,
	}, nil
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	modName, _, ok := module.SplitPathVersion(modulePath)
	if ok {
		parts := strings.Split(modName, "/")
		if len(parts) > 0 {
			base = parts[len(parts)-1]
		}
	}
	if base == "" {
		return "perf_app"
	}
	return base
}

func validateAddr(addr string) error {
	if strings.Contains(addr, "://") {
		return fmt.Errorf("observer.addr must be host:port without a scheme (got %q)", addr)
	}
	if strings.Contains(addr, "/") {
		return fmt.Errorf("observer.addr must not contain a path (got %q)", addr)
	}
	return nil
}
