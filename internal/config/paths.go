package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the directories the dashboard writes to, all anchored at the
// executable directory.
type Paths struct {
	ExecutableDir string
	LogsDir       string
	ExportsDir    string
	SnapshotsDir  string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return PathsFrom(filepath.Dir(exe)), nil
}

// PathsFrom lays out the standard directories under exeDir
func PathsFrom(exeDir string) *Paths {
	return &Paths{
		ExecutableDir: exeDir,
		LogsDir:       filepath.Join(exeDir, "logs"),
		ExportsDir:    filepath.Join(exeDir, "exports"),
		SnapshotsDir:  filepath.Join(exeDir, "snapshots"),
	}
}

// PathsFor returns the directories configured in cfg
func PathsFor(cfg *Config) *Paths {
	return &Paths{
		ExecutableDir: cfg.Paths.ExecutableDir,
		LogsDir:       cfg.Paths.LogsDir,
		ExportsDir:    cfg.Paths.ExportsDir,
		SnapshotsDir:  cfg.Paths.SnapshotsDir,
	}
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories(logger *slog.Logger) error {
	for _, dir := range []string{p.LogsDir, p.ExportsDir, p.SnapshotsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		if logger != nil {
			logger.Debug("Ensured directory exists", slog.String("directory", dir))
		}
	}
	return nil
}

// ExportPath returns a file path inside the exports directory
func (p *Paths) ExportPath(name string) string {
	return filepath.Join(p.ExportsDir, filepath.Base(name))
}

// SnapshotPath returns a file path inside the snapshots directory
func (p *Paths) SnapshotPath(name string) string {
	return filepath.Join(p.SnapshotsDir, filepath.Base(name))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
