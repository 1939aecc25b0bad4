package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dirs locates the clamz files of a user.
type Dirs struct {
	Home string
}

// UserDirs returns the layout of the current user, rooted at $HOME.
func UserDirs() (Dirs, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("can't locate home directory: %w", err)
	}
	return Dirs{Home: h}, nil
}

// Root is the directory where clamz keeps its files.
func (d Dirs) Root() string {
	return filepath.Join(d.Home, ".clamz")
}

// File returns the name of the file base+suffix in the clamz directory, or
// in its subdirectory subdir when not empty. Missing directories are created.
func (d Dirs) File(subdir, base, suffix string) (string, error) {
	dir := d.Root()
	if subdir != "" {
		dir = filepath.Join(dir, subdir)
	}
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", fmt.Errorf("can't create directory: %w", err)
	}
	return filepath.Join(dir, base+suffix), nil
}
