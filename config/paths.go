package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Dirs resolves the on-disk layout against host platform conventions. The
// path accessors do no I/O; EnsureDataDirs creates the recovery and sessions
// directories, and every other path is created lazily by its writer.
type Dirs struct {
	dataDir   string
	configDir string
}

const appDirName = "fresh"

// DefaultDirs follows the XDG base directory spec (and its platform
// equivalents on macOS and Windows).
func DefaultDirs() Dirs {
	return Dirs{
		dataDir:   filepath.Join(xdg.DataHome, appDirName),
		configDir: filepath.Join(xdg.ConfigHome, appDirName),
	}
}

// DirsAt roots everything under one directory; used by tests.
func DirsAt(root string) Dirs {
	return Dirs{
		dataDir:   filepath.Join(root, "data"),
		configDir: filepath.Join(root, "config"),
	}
}

func (d Dirs) RecoveryDir() string { return filepath.Join(d.dataDir, "recovery") }

func (d Dirs) SessionsDir() string { return filepath.Join(d.dataDir, "sessions") }

func (d Dirs) SearchHistoryPath() string { return filepath.Join(d.dataDir, "search_history.json") }

func (d Dirs) ReplaceHistoryPath() string { return filepath.Join(d.dataDir, "replace_history.json") }

func (d Dirs) ConfigPath() string { return filepath.Join(d.configDir, "config.json") }

func (d Dirs) ThemesDir() string { return filepath.Join(d.configDir, "themes") }

func (d Dirs) GrammarsDir() string { return filepath.Join(d.configDir, "grammars") }

func (d Dirs) PluginsDir() string { return filepath.Join(d.configDir, "plugins") }

// LogPath is the debug log written by the editor's structured logger.
func (d Dirs) LogPath() string { return filepath.Join(d.dataDir, "fresh.log") }

// EnsureDataDirs creates the writable data directories.
func (d Dirs) EnsureDataDirs() error {
	for _, dir := range []string{d.RecoveryDir(), d.SessionsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
