package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# littlefs Configuration File
#
# Every key can be overridden with an environment variable prefixed with
# LITTLEFS_, e.g. LITTLEFS_LOGGING_LEVEL=DEBUG or LITTLEFS_ENGINE_TYPE=badger.
#
# engine.type selects the storage backend: memory, badger or s3. Only the
# section with the same name is used.

`

// InitConfig writes a default configuration file.
//
// Parameters:
//   - configPath: Destination file (empty string uses the default location)
//   - force: Overwrite an existing file
//
// Returns:
//   - string: The path written
//   - error: If the file exists and force is false, or writing fails
func InitConfig(configPath string, force bool) (string, error) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := renderDefaultConfig()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}

// renderDefaultConfig renders GetDefaultConfig as commented YAML.
func renderDefaultConfig() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(GetDefaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}

	return buf.Bytes(), nil
}
