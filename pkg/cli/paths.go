package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths locates the per-user files of an app. By default they live under
// ~/.giztoy/<app>; the <APP>_HOME environment variable (STOI_HOME for
// "stoi") moves the whole tree elsewhere.
type Paths struct {
	AppName string
	HomeDir string

	// Root overrides the app directory when non-empty.
	Root string
}

// HomeEnv returns the name of the variable that overrides the app
// directory.
func HomeEnv(appName string) string {
	return strings.ToUpper(strings.ReplaceAll(appName, "-", "_")) + "_HOME"
}

// NewPaths resolves the app directory from the environment and the user's
// home directory.
func NewPaths(appName string) (*Paths, error) {
	if root := os.Getenv(HomeEnv(appName)); root != "" {
		return &Paths{AppName: appName, Root: root}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// AppDir returns the directory holding the app's config and cache.
func (p *Paths) AppDir() string {
	if p.Root != "" {
		return p.Root
	}
	return filepath.Join(p.HomeDir, DefaultBaseDir, p.AppName)
}

// ConfigFile returns <app dir>/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// CacheDir returns the score cache directory, <app dir>/cache.
func (p *Paths) CacheDir() string {
	return filepath.Join(p.AppDir(), "cache")
}

// EnsureCacheDir creates the cache directory. It is kept private to the
// user since cached scores name the inputs they were computed from.
func (p *Paths) EnsureCacheDir() error {
	return os.MkdirAll(p.CacheDir(), 0700)
}
