package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/kr/pretty"

	"github.com/wlevine/clamz/config"
	"github.com/wlevine/clamz/download"
	"github.com/wlevine/clamz/mylog"
	"github.com/wlevine/clamz/net/http"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// trap Ctrl+C and call cancel on the context
	ctx, cancel := context.WithCancel(context.Background())
	breakChannel := make(chan os.Signal, 1)
	signal.Notify(breakChannel, os.Interrupt)

	defer func() {
		signal.Stop(breakChannel)
		cancel()
	}()

	go func() {
		select {
		case <-breakChannel:
			cancel()
		case <-ctx.Done():
			return
		}
	}()

	status := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	signal.Stop(breakChannel)
	cancel()
	os.Exit(int(status))
}

// run is the whole program, minus the process plumbing.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) download.Status {
	console := log.New(stderr, "", 0)
	boot, _ := mylog.NewLog("ERROR", console, nil)

	dirs, err := config.UserDirs()
	if err != nil {
		boot.Error().Printf("[CONFIG] %s", err)
		return download.StatusSetup
	}
	if err = config.LoadUserDirs(dirs.Home); err != nil {
		boot.Warning().Printf("[CONFIG] Can't read XDG user directories: %s", err)
	}
	cfg, err := config.Load(dirs, boot)
	if err != nil {
		boot.Error().Printf("[CONFIG] %s", err)
		return download.StatusSetup
	}

	f := newFlags(args[0], cfg, stderr)
	files, err := f.parse(args[1:])
	switch {
	case err == errExit:
		return download.StatusOK
	case err != nil:
		fmt.Fprintf(stderr, "%s: %s\n", f.progname, err)
		f.usage()
		return download.StatusSetup
	case f.version:
		fmt.Fprintf(stderr, "clamz %s, commit %s, built at %s\n", version, commit, date)
		return download.StatusOK
	}

	logger, closeLog, err := newLogger(cfg, console)
	if err != nil {
		boot.Error().Printf("%s", err)
		return download.StatusSetup
	}
	defer closeLog()
	if logger.IsDebug() {
		logger.Debug().Printf("[MAIN] Settings: %# v", pretty.Formatter(cfg))
	}

	a := &app{
		cfg:    cfg,
		dirs:   dirs,
		logger: logger,
		client: http.NewClient(http.SetUserAgent(http.VersionedUserAgent(version))),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return a.Run(ctx, files)
}

// newLogger opens the log file when one is given.
func newLogger(cfg *config.Config, console *log.Logger) (*mylog.MyLog, func(), error) {
	var file mylog.Logger
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("can't open log file: %w", err)
		}
		file = log.New(f, "", log.LstdFlags)
		closeLog = func() { f.Close() }
	}
	logger, err := mylog.NewLog(cfg.LogLevel, console, file)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	logger.SetQuiet(cfg.Quiet)
	return logger, closeLog, nil
}
