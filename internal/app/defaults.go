package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HABITS_CONFIG_PATH: config file location (default: ~/.config/habits.toml)
//   - HABITS_HOME: base directory for habits data (default: ~/.local/share/habits)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("HABITS_CONFIG_PATH"); path != "" {
		return homedir.Expand(path)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "habits.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("HABITS_HOME"); path != "" {
		return homedir.Expand(path)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "habits"), nil
}
