package config

import (
	"os"
	"path/filepath"
)

// Paths resolves the application's on-disk layout. All relative paths are
// anchored at the executable directory rather than the working directory so
// the binary behaves the same regardless of where it is launched from.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// NewPaths builds the resolved path set from the configured directories.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base, err := executableDir()
	if err != nil {
		return nil, err
	}

	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(base, cfg.DataDir),
		ReportsDir: resolve(base, cfg.ReportsDir),
		LogsDir:    resolve(base, cfg.LogsDir),
	}, nil
}

// ResolveSource anchors a dataset source path at the data directory unless
// it is already absolute.
func (p *Paths) ResolveSource(source string) string {
	if filepath.IsAbs(source) {
		return source
	}
	// Paths like "data/x.csv" are relative to the base dir, bare names to
	// the data dir.
	if filepath.Dir(source) != "." {
		return filepath.Join(p.BaseDir, source)
	}
	return filepath.Join(p.DataDir, source)
}

// GetReportPath returns the full path for a report file.
func (p *Paths) GetReportPath(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// GetLogPath returns the full path for a log file.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// EnsureDirectories creates the writable directories if they do not exist.
// The data directory is read-only input and is not created.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
