package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadUserDirs exports the XDG user directories (XDG_MUSIC_DIR and the
// like) found in user-dirs.dirs, so name formats can refer to them.
// A missing file is not an error.
func LoadUserDirs(home string) error {
	if home == "" {
		return nil
	}
	cfg := os.Getenv("XDG_CONFIG_HOME")
	if cfg == "" {
		cfg = filepath.Join(home, ".config")
	}
	f, err := os.Open(filepath.Join(cfg, "user-dirs.dirs"))
	if err != nil {
		return nil
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		k, v, ok := userDir(s.Text(), home)
		if !ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return s.Err()
}

// userDir reads a line XDG_NAME_DIR="value". A leading $HOME in the value
// stands for home, and a backslash escapes the next character.
func userDir(l, home string) (string, string, bool) {
	l = strings.TrimLeft(l, " \t")
	if !strings.HasPrefix(l, "XDG_") {
		return "", "", false
	}
	i := 0
	for i < len(l) && isNameChar(l[i]) {
		i++
	}
	if !strings.HasPrefix(l[i:], `="`) {
		return "", "", false
	}
	k, q := l[:i], l[i+2:]

	var b strings.Builder
	if strings.HasPrefix(q, "$HOME") {
		b.WriteString(home)
		q = q[5:]
	}
	for j := 0; j < len(q) && q[j] != '"'; j++ {
		if q[j] == '\\' && j+1 < len(q) {
			j++
		}
		b.WriteByte(q[j])
	}
	return k, b.String(), true
}

func isNameChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
