package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Render    RenderConfig    `json:"render"`
	Preview   PreviewConfig   `json:"preview"`
	Encode    EncodeConfig    `json:"encode"`
	Server    ServerConfig    `json:"server"`
	Placement PlacementConfig `json:"placement"`
}

// RenderConfig holds the default label appearance
type RenderConfig struct {
	FontSize          float64 `json:"font_size"`
	Padding           float64 `json:"padding"`
	TextColor         string  `json:"text_color"`
	BackgroundColor   string  `json:"background_color"`
	BackgroundOpacity float64 `json:"background_opacity"`
	BoldFont          bool    `json:"bold_font"`
}

// PreviewConfig bounds the editing preview surface
type PreviewConfig struct {
	MaxWidth  int `json:"max_width"`
	MaxHeight int `json:"max_height"`
}

// EncodeConfig holds GIF output parameters
type EncodeConfig struct {
	DelayMs   int  `json:"delay_ms"`
	LoopCount int  `json:"loop_count"`
	Dither    bool `json:"dither"`
}

// ServerConfig holds HTTP server parameters
type ServerConfig struct {
	Addr            string `json:"addr"`
	MaxUploadBytes  int64  `json:"max_upload_bytes"`
	SessionTTLMins  int    `json:"session_ttl_minutes"`
}

// PlacementConfig selects the smart-placement backend
type PlacementConfig struct {
	Backend string `json:"backend"` // "local", "ollama", or "llamacpp"
	Model   string `json:"model"`
	URL     string `json:"url"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			FontSize:          28,
			Padding:           6,
			TextColor:         "#ffffff",
			BackgroundColor:   "#000000",
			BackgroundOpacity: 0.6,
			BoldFont:          false,
		},
		Preview: PreviewConfig{
			MaxWidth:  900,
			MaxHeight: 700,
		},
		Encode: EncodeConfig{
			DelayMs:   750,
			LoopCount: 0,
			Dither:    true,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
			SessionTTLMins: 30,
		},
		Placement: PlacementConfig{
			Backend: "local",
			Model:   "openbmb/minicpm-v4.5",
			URL:     "",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("render.font_size must be positive")
	}

	if c.Render.Padding < 0 {
		return fmt.Errorf("render.padding must be non-negative")
	}

	if c.Render.BackgroundOpacity < 0 || c.Render.BackgroundOpacity > 1 {
		return fmt.Errorf("render.background_opacity must be between 0 and 1")
	}

	if c.Preview.MaxWidth < 1 || c.Preview.MaxHeight < 1 {
		return fmt.Errorf("preview bounds must be positive")
	}

	if c.Encode.DelayMs < 1 {
		return fmt.Errorf("encode.delay_ms must be positive")
	}

	if c.Encode.LoopCount < 0 {
		return fmt.Errorf("encode.loop_count must be non-negative")
	}

	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}

	switch c.Placement.Backend {
	case "local", "ollama", "llamacpp":
	default:
		return fmt.Errorf("placement.backend must be local, ollama, or llamacpp")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "beforeafterify", "config.json")
}
