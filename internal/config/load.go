package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if _, err := cfg.Env(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./skyrunner.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Skyrunner")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Skyrunner")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "skyrunner")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "skyrunner")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Environments named in the file are merged onto the stock preset of the same name,
// so a file only has to list the fields it changes.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial struct {
		Environments map[string]yaml.Node `yaml:"environments"`
	}
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	envs := cfg.Environments
	cfg.Environments = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.Environments = envs
	if cfg.Environments == nil {
		cfg.Environments = make(map[string]Environment)
	}

	for name, node := range partial.Environments {
		env, ok := cfg.Environments[name]
		if !ok {
			env = Environment{Name: name}
		}
		if err := node.Decode(&env); err != nil {
			return fmt.Errorf("environment %q: %w", name, err)
		}
		cfg.Environments[name] = env
	}
	return nil
}
