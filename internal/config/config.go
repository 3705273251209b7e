// Package config provides configuration management for the macro engine.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Capture contains recording settings
	Capture CaptureConfig `json:"capture"`

	// Playback contains playback settings
	Playback PlaybackConfig `json:"playback"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// CaptureConfig contains recording settings
type CaptureConfig struct {
	// PauseKey toggles pause/resume during recording (capture-domain name)
	PauseKey string `json:"pause_key"`

	// ExitKey ends the recording session when released
	ExitKey string `json:"exit_key"`

	// IgnoredKeys lists keys that are never recorded
	IgnoredKeys []string `json:"ignored_keys,omitempty"`
}

// PlaybackConfig contains playback settings
type PlaybackConfig struct {
	// PauseKey toggles pause/resume during playback
	PauseKey string `json:"pause_key"`

	// EscapeKey ends playback when encountered in the recording
	EscapeKey string `json:"escape_key"`

	// ScrollUnit is the wheel amount one recorded notch translates to.
	// 120 matches one physical notch on most mice; adjust if scrolls
	// travel too far or not far enough on this system.
	ScrollUnit int `json:"scroll_unit"`

	// WaitSliceMs bounds one uninterruptible sleep inside the playback
	// wait loop, in milliseconds
	WaitSliceMs int `json:"wait_slice_ms"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// RecordingsDir is where recordings are saved; empty means
	// "recordings" under the working directory
	RecordingsDir string `json:"recordings_dir,omitempty"`

	// RefractorySeconds is the pause-toggle debounce window
	RefractorySeconds float64 `json:"refractory_seconds"`

	// APIEnabled enables the HTTP control server
	APIEnabled bool `json:"api_enabled"`

	// APIPort is the port for the control server
	APIPort int `json:"api_port"`

	// APIToken is an optional authentication token for API requests
	APIToken string `json:"api_token,omitempty"`

	// LogLevel sets the log verbosity ("debug", "info", ...)
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			PauseKey: "Key.pause",
			ExitKey:  "Key.esc",
		},
		Playback: PlaybackConfig{
			PauseKey:    "Key.pause",
			EscapeKey:   "Key.esc",
			ScrollUnit:  120,
			WaitSliceMs: 10,
		},
		General: GeneralConfig{
			RecordingsDir:     "recordings",
			RefractorySeconds: 3,
			APIEnabled:        false,
			APIPort:           18080,
			LogLevel:          "info",
		},
	}
}

// Refractory returns the pause debounce window as a duration.
func (c *Config) Refractory() time.Duration {
	return time.Duration(c.General.RefractorySeconds * float64(time.Second))
}

// WaitSlice returns the playback wait granularity as a duration.
func (c *Config) WaitSlice() time.Duration {
	return time.Duration(c.Playback.WaitSliceMs) * time.Millisecond
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager using the per-OS default
// config location.
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager bound to an explicit path.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "macrorec")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "macrorec")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "macrorec")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, m.config)
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.configPath, data, 0o644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Set updates the configuration
func (m *Manager) Set(config *Config) {
	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
}
