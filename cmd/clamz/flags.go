package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/wlevine/clamz/config"
)

// errExit is returned by parse when the help has been displayed.
var errExit = errors.New("exit")

// Options that edit the settings are applied in command line order, on
// top of the configuration file.
type flags struct {
	progname string
	fs       *flag.FlagSet
	out      io.Writer
	cfg      *config.Config
	xml      bool
	help     bool
	version  bool
}

// funcValue calls a function for each occurrence of the option.
type funcValue struct {
	fn  func(string)
	typ string
}

func (v *funcValue) Set(s string) error { v.fn(s); return nil }
func (v *funcValue) String() string     { return "" }
func (v *funcValue) Type() string       { return v.typ }

func newFlags(progname string, cfg *config.Config, out io.Writer) *flags {
	f := &flags{
		progname: filepath.Base(progname),
		fs:       flag.NewFlagSet(progname, flag.ContinueOnError),
		out:      out,
		cfg:      cfg,
	}
	fs := f.fs
	fs.SetOutput(out)
	fs.SortFlags = false
	fs.Usage = f.usage

	fs.StringVarP(&cfg.NameFormat, "output", "o", cfg.NameFormat, "write output to file NAME (may contain variables, see below)")
	fs.StringVarP(&cfg.OutputDir, "output-dir", "d", cfg.OutputDir, "write output to directory DIR (may also contain variables)")
	f.action("default-output-dir", "DIR", "output directory when none is configured", func(s string) {
		if cfg.OutputDir == "" {
			cfg.OutputDir = s
		}
	})
	fs.BoolVarP(&cfg.Resume, "resume", "r", cfg.Resume, "resume a partial download")
	fs.BoolVarP(&cfg.PrintOnly, "info", "i", cfg.PrintOnly, "show info about AMZ-files; do not download any tracks")
	fs.BoolVarP(&f.xml, "xml", "x", false, "output XML data from AMZ-files; do not download any tracks")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "display detailed information")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "don't display non-critical messages")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "attempts per track before giving up")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "write a log to FILE")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (ERROR, WARN, INFO, TRACE, DEBUG)")
	fs.BoolVar(&f.help, "help", false, "display this help")
	fs.BoolVar(&f.version, "version", false, "display program version")

	f.action("allow-chars", "CHARS", "allow filenames containing CHARS", cfg.Allow)
	f.action("forbid-chars", "CHARS", "forbid filenames containing CHARS", cfg.ForbidMore)
	f.toggle("allow-uppercase", "allow uppercase letters in filenames", func() { cfg.AllowUppercase = true })
	f.toggle("forbid-uppercase", "forbid uppercase letters in filenames", func() { cfg.AllowUppercase = false })
	f.toggle("utf8-filenames", "allow UTF-8 filenames", func() { cfg.AllowUTF8 = config.On })
	f.toggle("utf-8-filenames", "allow UTF-8 filenames", func() { cfg.AllowUTF8 = config.On })
	fs.MarkHidden("utf-8-filenames")
	f.toggle("ascii-filenames", "force ASCII-only filenames", func() { cfg.AllowUTF8 = config.Off })
	return f
}

func (f *flags) action(name, typ, usage string, fn func(string)) {
	f.fs.Var(&funcValue{fn: fn, typ: typ}, name, usage)
}

// toggle declares an option without argument.
func (f *flags) toggle(name, usage string, fn func()) {
	f.fs.Var(&funcValue{fn: func(string) { fn() }, typ: "bool"}, name, usage)
	f.fs.Lookup(name).NoOptDefVal = "true"
}

// parse reads the options and returns the manifest file names. A lone -
// stands for the standard input.
func (f *flags) parse(args []string) ([]string, error) {
	err := f.fs.Parse(args)
	if err == flag.ErrHelp {
		return nil, errExit
	}
	if err != nil {
		return nil, err
	}
	if f.help {
		f.usage()
		return nil, errExit
	}
	if f.xml {
		f.cfg.PrintOnly = true
		f.cfg.PrintAsXML = true
	}
	return f.fs.Args(), nil
}

func (f *flags) usage() {
	fmt.Fprintf(f.out, "Usage: %s [options] amz-file ...\n", f.progname)
	f.fs.PrintDefaults()
	fmt.Fprint(f.out, "\nFilenames (-o, -d) may contain the following variables:\n"+
		" ${title} ${creator} ${album} ${tracknum} ${album_artist} ${genre}\n"+
		" ${discnum} ${suffix} ${asin} ${album_asin}\n")
}
