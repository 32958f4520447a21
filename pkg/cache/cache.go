// Package cache stores compiled harness executables keyed by a hash of
// their source and the compiler that built them.
package cache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Cache is a directory of executables
type Cache struct {
	Dir    string
	Logger *slog.Logger
}

// New creates a cache rooted at dir, or at DefaultDir when dir is empty.
// The directory is created on first Store.
func New(dir string) *Cache {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Cache{Dir: dir}
}

// DefaultDir returns the per-user cache directory
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "ralph-jit")
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Key hashes a complete program together with the compiler that builds it
func Key(source, compiler string) string {
	d := xxhash.New()
	d.WriteString(source)
	d.WriteString("\x00")
	d.WriteString(compiler)
	return fmt.Sprintf("%016x", d.Sum64())
}

// Path returns where the executable for name and key lives
func (c *Cache) Path(name, key string) string {
	file := name + "_" + key
	if runtime.GOOS == "windows" {
		file += ".exe"
	}
	return filepath.Join(c.Dir, file)
}

// Lookup returns the cached executable for name and key, if present
func (c *Cache) Lookup(name, key string) (string, bool) {
	path := c.Path(name, key)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.logger().Debug("cache miss", "name", name, "key", key)
		return "", false
	}
	c.logger().Debug("cache hit", "path", path)
	return path, true
}

// Store runs build with a temporary path inside the cache directory and
// renames the result into place, so readers never see a partial file.
func (c *Cache) Store(name, key string, build func(tmp string) error) (string, error) {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}
	final := c.Path(name, key)
	tmp := filepath.Join(c.Dir, ".tmp-"+uuid.NewString()+filepath.Ext(final))
	if err := build(tmp); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to store %s: %w", filepath.Base(final), err)
	}
	c.logger().Debug("cache store", "path", final)
	return final, nil
}

// Entries returns the number of executables in the cache
func (c *Cache) Entries() (int, error) {
	ents, err := os.ReadDir(c.Dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range ents {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			n++
		}
	}
	return n, nil
}

// Clear removes every cached executable
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("failed to clear cache %s: %w", c.Dir, err)
	}
	c.logger().Debug("cache cleared", "dir", c.Dir)
	return nil
}
