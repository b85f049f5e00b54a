package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quirelabs/quire/internal/constants"
)

func GetConfigPath(homeDir string) string {
	return filepath.Join(
		homeDir,
		constants.ConfigDir,
		constants.ConfigFile+"."+constants.ConfigFileType,
	)
}

func EnsureConfigExists(homeDir string) error {
	configPath := GetConfigPath(homeDir)
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		file, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		file.Close()
	} else if err != nil {
		return fmt.Errorf("failed to check config file existence: %w", err)
	}

	cfg, err := Load(homeDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	required := map[string]string{
		"StoreDir": cfg.StoreDir,
		"Backend":  cfg.Backend,
	}

	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return &ConfigInitError{
				msg: fmt.Sprintf("required config variable %q is not set", name),
			}
		}
	}

	if cfg.Backend == BackendPostgres && strings.TrimSpace(cfg.DSN) == "" {
		return &ConfigInitError{
			msg: "backend \"postgres\" requires a dsn",
		}
	}

	return nil
}
