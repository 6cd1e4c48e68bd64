package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
	"github.com/AccelByte/extend-level-progression/pkg/errors"
)

//go:embed config.yml
var defaultConfigYAML []byte

// DefaultConfigYAML returns the commented default config file.
func DefaultConfigYAML() []byte {
	return defaultConfigYAML
}

// ConfigLoader loads and validates the game configuration from a YAML file.
// It performs file reading, YAML parsing, normalization, and validation.
type ConfigLoader struct {
	fs         afero.Fs
	configPath string
	validator  *Validator
	logger     *slog.Logger
}

// NewConfigLoader creates a new ConfigLoader instance.
//
// Parameters:
//   - fs: File system the config is read from (afero.NewOsFs() in production)
//   - configPath: Path to the config.yml file
//   - logger: Structured logger for operational logging
func NewConfigLoader(fs afero.Fs, configPath string, logger *slog.Logger) *ConfigLoader {
	return &ConfigLoader{
		fs:         fs,
		configPath: configPath,
		validator:  NewValidator(),
		logger:     logger,
	}
}

// Path returns the config file path.
func (l *ConfigLoader) Path() string {
	return l.configPath
}

// LoadConfig loads the configuration file and returns a validated Config.
// This method performs four steps:
// 1. Read the config file
// 2. Parse YAML on top of the defaults
// 3. Normalize values the original behavior tolerates (interval floor, message type case)
// 4. Validate the leveling rules
//
// At startup a failure is fatal. On reload the caller keeps its previous config.
func (l *ConfigLoader) LoadConfig() (*Config, error) {
	// Step 1: Read file
	data, err := afero.ReadFile(l.fs, l.configPath)
	if err != nil {
		return nil, errors.ErrConfigNotFound(l.configPath, err)
	}

	// Step 2: Parse YAML over defaults so absent keys keep their default value
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if config.Levels == nil {
		config.Levels = map[string]string{}
	}
	config.LevelOrder = levelKeyOrder(data)

	// Step 3: Normalize
	l.normalize(config)

	// Step 4: Validate
	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	l.logger.Info("Config loaded successfully",
		"config_path", l.configPath,
		"points_per_kill", config.Points.PerKill,
		"points_per_level", config.Points.PerLevel,
		"min_level", config.MinLevel,
		"max_level", config.MaxLevel,
		"flush_interval", config.FlushInterval(),
		"level_ranges", len(config.Levels),
	)

	return config, nil
}

func (l *ConfigLoader) normalize(config *Config) {
	if config.FlushIntervalSeconds < 1 {
		l.logger.Warn("flush-interval-seconds below minimum, using 1",
			"configured", config.FlushIntervalSeconds)
		config.FlushIntervalSeconds = 1
	}

	messageType := strings.ToLower(strings.TrimSpace(config.LevelUpMessageType))
	if !domain.MessageType(messageType).IsValid() {
		l.logger.Warn("Unknown level-up-message-type, using private",
			"configured", config.LevelUpMessageType)
		messageType = string(domain.MessageTypePrivate)
	}
	config.LevelUpMessageType = messageType
}

// EnsureDefaultConfig writes the default config file to path if no file exists there.
// Returns true if a file was written.
func EnsureDefaultConfig(fs afero.Fs, path string) (bool, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}
	if exists {
		return false, nil
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, defaultConfigYAML, os.FileMode(0o644)); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}

// levelKeyOrder returns the keys of the levels mapping in the order they
// appear in data. Map decoding loses that order.
func levelKeyOrder(data []byte) []string {
	var doc struct {
		Levels yaml.Node `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil || doc.Levels.Kind != yaml.MappingNode {
		return nil
	}

	keys := make([]string, 0, len(doc.Levels.Content)/2)
	for i := 0; i+1 < len(doc.Levels.Content); i += 2 {
		keys = append(keys, doc.Levels.Content[i].Value)
	}
	return keys
}
