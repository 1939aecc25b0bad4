// Package config holds the clamz settings.
//
// Settings are layered: built-in defaults, then the user's configuration
// file (~/.clamz/config), then CLAMZ_* environment variables. Command line
// flags are applied last by the caller.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/wlevine/clamz/download"
	"github.com/wlevine/clamz/mylog"
	"github.com/wlevine/clamz/nameformat"
)

const envVarPrefix = "CLAMZ"

// Tristate is a setting that can be forced on, forced off, or left to the
// system locale.
type Tristate int

const (
	UseLocale Tristate = iota
	On
	Off
)

// ParseTristate reads a setting value: anything starting with t or T is On,
// with f or F is Off, anything else is UseLocale.
func ParseTristate(s string) Tristate {
	switch {
	case strings.HasPrefix(s, "t"), strings.HasPrefix(s, "T"):
		return On
	case strings.HasPrefix(s, "f"), strings.HasPrefix(s, "F"):
		return Off
	}
	return UseLocale
}

// Decode implements envconfig.Decoder.
func (t *Tristate) Decode(value string) error {
	*t = ParseTristate(value)
	return nil
}

func (t Tristate) String() string {
	switch t {
	case On:
		return "True"
	case Off:
		return "False"
	}
	return "UseLocale"
}

// Config is the set of clamz settings.
type Config struct {
	OutputDir      string   `envconfig:"OUTPUT_DIR"`
	NameFormat     string   `envconfig:"NAME_FORMAT"`
	ForbidChars    string   `envconfig:"FORBID_CHARS"`
	AllowUppercase bool     `envconfig:"ALLOW_UPPERCASE"`
	AllowUTF8      Tristate `envconfig:"ALLOW_UTF8"`
	UTF8Locale     bool     `ignored:"true"`

	PrintOnly  bool `ignored:"true"` // info mode, nothing is downloaded
	PrintAsXML bool `ignored:"true"` // dump the decoded manifests
	Verbose    bool `envconfig:"VERBOSE"`
	Quiet      bool `envconfig:"QUIET"`
	Resume     bool `envconfig:"RESUME"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"`
	RetryDelay  time.Duration `envconfig:"RETRY_DELAY"`

	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`
}

// Default returns the settings in use when nothing is configured.
func Default() *Config {
	return &Config{
		MaxAttempts: download.DefaultMaxAttempts,
		RetryDelay:  download.DefaultRetryDelay,
		LogLevel:    "INFO",
		UTF8Locale:  LocaleIsUTF8(),
	}
}

// Load reads the configuration file of the user, creating it when missing,
// and applies the environment overrides on top of it.
func Load(d Dirs, log *mylog.MyLog) (*Config, error) {
	c := Default()
	name, err := d.File("", "config", "")
	if err != nil {
		return nil, err
	}
	if err = c.LoadFile(name, log); err != nil {
		return nil, err
	}
	if err = c.LoadEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadEnv applies the CLAMZ_* environment variables.
func (c *Config) LoadEnv() error {
	if err := envconfig.Process(envVarPrefix, c); err != nil {
		return fmt.Errorf("can't read environment: %w", err)
	}
	return nil
}

// ForbidMore adds the characters of chars to the forbidden set.
func (c *Config) ForbidMore(chars string) {
	b := []byte(c.ForbidChars)
	for i := 0; i < len(chars); i++ {
		if strings.IndexByte(string(b), chars[i]) < 0 {
			b = append(b, chars[i])
		}
	}
	c.ForbidChars = string(b)
}

// Allow removes the characters of chars from the forbidden set.
func (c *Config) Allow(chars string) {
	b := []byte(c.ForbidChars)
	for i := 0; i < len(chars); i++ {
		if p := strings.IndexByte(string(b), chars[i]); p >= 0 {
			b[p] = b[len(b)-1]
			b = b[:len(b)-1]
		}
	}
	c.ForbidChars = string(b)
}

// UTF8 tells if file names may contain UTF-8 characters.
func (c *Config) UTF8() bool {
	switch c.AllowUTF8 {
	case On:
		return true
	case Off:
		return false
	}
	return c.UTF8Locale
}

// NameOptions gives the sanitizer settings.
func (c *Config) NameOptions() nameformat.Options {
	return nameformat.Options{
		ForbidChars:    c.ForbidChars,
		AllowUppercase: c.AllowUppercase,
		AllowUTF8:      c.UTF8(),
	}
}

// DownloadSettings gives the settings of the download manager.
func (c *Config) DownloadSettings() download.Settings {
	return download.Settings{
		OutputDir:   c.OutputDir,
		NameFormat:  c.NameFormat,
		Options:     c.NameOptions(),
		Resume:      c.Resume,
		DryRun:      c.PrintOnly,
		MaxAttempts: c.MaxAttempts,
		RetryDelay:  c.RetryDelay,
	}
}
