package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new ConfigManager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()
		applyEnvOverrides(defaultCfg)

		// Save default config to file
		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	cfg, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	manager := NewManager(cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// readConfigFile decodes and validates a single config file.
func readConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the file.
func applyEnvOverrides(cfg *Config) {
	if arl := os.Getenv("STREAMVAULT_ARL"); arl != "" {
		cfg.Services.Deezer.ARL = arl
	}
	if spDC := os.Getenv("STREAMVAULT_SP_DC"); spDC != "" {
		cfg.Services.Spotify.SpDC = spDC
	}
	if id := os.Getenv("STREAMVAULT_SPOTIFY_CLIENT_ID"); id != "" {
		cfg.Services.Spotify.ClientID = id
	}
	if secret := os.Getenv("STREAMVAULT_SPOTIFY_CLIENT_SECRET"); secret != "" {
		cfg.Services.Spotify.ClientSecret = secret
	}
	if key := os.Getenv("STREAMVAULT_API_KEY"); key != "" {
		cfg.Resolver.APIKey = key
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
