package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const defaultFileName = "tasks.yaml"

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`
}

type StoreEnv struct {
	// File is the path of the task document. Empty means the XDG data dir.
	File string `envconfig:"FILE"`
	// Strict makes an unparseable document a fatal error instead of an empty list.
	Strict bool `envconfig:"STRICT" default:"false"`
}

type Env struct {
	BaseEnv
	StoreEnv
}

const namespace = "TASKTRACKER"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// DataFile returns the configured document path, falling back to
// $XDG_DATA_HOME/tasktracker/tasks.yaml or ~/.local/share/tasktracker/tasks.yaml.
func (e *StoreEnv) DataFile() (string, error) {
	if e != nil && e.File != "" {
		return e.File, nil
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tasktracker", defaultFileName), nil
}
