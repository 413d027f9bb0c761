package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bookminer home directory.
	DefaultDirName = ".bookminer"

	// OutputsDirName is the subdirectory for batch run outputs.
	OutputsDirName = "outputs"

	// ServerDirName is the subdirectory mounted into the model server container.
	ServerDirName = "ollama"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the bookminer home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bookminer).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// OutputsPath returns the path to the outputs directory.
func (d *Dir) OutputsPath() string {
	return filepath.Join(d.path, OutputsDirName)
}

// ServerDataPath returns the host path mounted into the model server container.
func (d *Dir) ServerDataPath() string {
	return filepath.Join(d.path, ServerDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create outputs directory (this also creates the parent)
	if err := os.MkdirAll(d.OutputsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create outputs directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ValidSinkPath returns the default CSV output path for a named run.
func (d *Dir) ValidSinkPath(runName string) string {
	return filepath.Join(d.OutputsPath(), runName+".csv")
}

// InvalidSinkPath returns the default error log path for a named run.
func (d *Dir) InvalidSinkPath(runName string) string {
	return filepath.Join(d.OutputsPath(), runName+"_errors.txt")
}
