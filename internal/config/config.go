// Package config resolves skiff's configuration directory and settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"skiff/internal/artifacts"
)

// getConfigDir returns the config directory path.
// Uses SKIFF_CONFIG_DIR env var if set, otherwise defaults to ~/.skiff.
// This is computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("SKIFF_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".skiff")
}

// ConfigDir returns the configuration directory path
func ConfigDir() string {
	return getConfigDir()
}

// SettingsPath returns the settings file path
func SettingsPath() string {
	return filepath.Join(getConfigDir(), "settings.yaml")
}

// JournalPath returns the transfer journal database path
func JournalPath() string {
	return filepath.Join(getConfigDir(), "journal.db")
}

// JournalLockPath returns the advisory lock file guarding the journal
func JournalLockPath() string {
	return filepath.Join(getConfigDir(), "journal.lock")
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(getConfigDir(), 0700)
}

// HostProfile is a named connection target in the settings file.
type HostProfile struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`             // default: 22
	User           string `yaml:"user"`             // default: current user
	IdentityFile   string `yaml:"identity_file"`    // default: ~/.ssh/id_ed25519
	KnownHostsFile string `yaml:"known_hosts_file"` // default: ~/.ssh/known_hosts
}

// Settings represents global skiff settings from ~/.skiff/settings.yaml.
type Settings struct {
	LogLevel string                 `yaml:"log_level"` // trace, debug, info, warn, off (default: off)
	Hosts    map[string]HostProfile `yaml:"hosts"`
}

// LoggingEnabled returns whether logging is enabled (any level other than "off" or empty).
func (s *Settings) LoggingEnabled() bool {
	level := strings.ToLower(s.LogLevel)
	return level != "" && level != "off"
}

// Profile returns the named host profile with defaults applied.
func (s *Settings) Profile(name string) (HostProfile, error) {
	p, ok := s.Hosts[name]
	if !ok {
		return HostProfile{}, fmt.Errorf("unknown host profile %q", name)
	}
	p.applyDefaults()
	if p.Host == "" {
		return HostProfile{}, fmt.Errorf("host profile %q has no host", name)
	}
	return p, nil
}

func (p *HostProfile) applyDefaults() {
	if p.Port == 0 {
		p.Port = 22
	}
	home, _ := os.UserHomeDir()
	if p.IdentityFile == "" {
		p.IdentityFile = filepath.Join(home, ".ssh", "id_ed25519")
	}
	if p.KnownHostsFile == "" {
		p.KnownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
	}
	p.IdentityFile = expandHome(p.IdentityFile, home)
	p.KnownHostsFile = expandHome(p.KnownHostsFile, home)
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// loadDefaultSettings parses default settings from embedded artifact.
func loadDefaultSettings() Settings {
	var settings Settings
	if err := yaml.Unmarshal(artifacts.GlobalSettings, &settings); err != nil {
		panic("failed to parse embedded global settings: " + err.Error())
	}
	return settings
}

// LoadSettings loads the settings from ~/.skiff/settings.yaml.
// Always reads from file to get latest config. Falls back to embedded defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			settings := loadDefaultSettings()
			return &settings, nil
		}
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// SaveSettings saves the settings to ~/.skiff/settings.yaml
func SaveSettings(settings *Settings) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	header := []byte("# Skiff settings\n# See: skiff --help\n\n")
	return os.WriteFile(SettingsPath(), append(header, data...), 0600)
}

// InitConfigDir initializes the config directory with default files
func InitConfigDir() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	settingsPath := SettingsPath()
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, artifacts.GlobalSettings, 0600); err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	}

	return nil
}
