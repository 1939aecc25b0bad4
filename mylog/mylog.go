// Package mylog is the leveled logger shared by every clamz component.
//
// Errors and warnings go to the console, everything up to the configured
// level goes to the optional log file.
package mylog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Logger interface {
	Printf(string, ...interface{})
}

type Level int

const (
	LevelFatal Level = iota - 2
	LevelError
	LevelWarning
	LevelInfo
	LevelTrace
	LevelDebug
)

var levelStrings = map[string]Level{
	"FATAL":   LevelFatal,
	"ERROR":   LevelError,
	"WARN":    LevelWarning,
	"WARNING": LevelWarning,
	"INFO":    LevelInfo,
	"TRACE":   LevelTrace,
	"DEBUG":   LevelDebug,
}

var prefixes = map[Level]string{
	LevelFatal:   "[FATAL] ",
	LevelError:   "[ERROR] ",
	LevelWarning: "[WARN ] ",
	LevelInfo:    "[INFO ] ",
	LevelTrace:   "[TRACE] ",
	LevelDebug:   "[DEBUG] ",
}

// ParseLevel converts a level name into a Level
func ParseLevel(lvl string) (Level, error) {
	level, ok := levelStrings[strings.ToUpper(strings.TrimSpace(lvl))]
	if !ok {
		return 0, fmt.Errorf("invalid log level '%s'", lvl)
	}
	return level, nil
}

type MyLog struct {
	logLevel                  Level
	quiet                     bool
	consoleLogger, fileLogger Logger
	exit                      func(int)
}

// NewLog return a MyLog structure
func NewLog(lvl string, consoleLogger, fileLogger Logger) (*MyLog, error) {
	level, err := ParseLevel(lvl)
	if err != nil {
		return nil, err
	}

	return &MyLog{
		logLevel:      level,
		consoleLogger: consoleLogger,
		fileLogger:    fileLogger,
		exit:          os.Exit,
	}, nil
}

// Discard returns a logger that drops every message. Fatal messages still
// terminate the program.
func Discard() *MyLog {
	l := log.New(io.Discard, "", 0)
	return &MyLog{
		logLevel:      LevelFatal,
		consoleLogger: l,
		exit:          os.Exit,
	}
}

// SetQuiet removes warnings from the console.
func (l *MyLog) SetQuiet(quiet bool) {
	if l != nil {
		l.quiet = quiet
	}
}

// Fatal prepare the output of FATAL message
func (l *MyLog) Fatal() logcontext {
	return logcontext{l, LevelFatal}
}

// Error prepare the output of ERROR message
func (l *MyLog) Error() logcontext {
	return logcontext{l, LevelError}
}

// Warning prepare the output of WARN message
func (l *MyLog) Warning() logcontext {
	return logcontext{l, LevelWarning}
}

// Info prepare the output of INFO message
func (l *MyLog) Info() logcontext {
	return logcontext{l, LevelInfo}
}

// Trace prepare the output of TRACE message
func (l *MyLog) Trace() logcontext {
	return logcontext{l, LevelTrace}
}

// Debug prepare the output of DEBUG message
func (l *MyLog) Debug() logcontext {
	return logcontext{l, LevelDebug}
}

// IsDebug return true if log level is DEBUG
func (l *MyLog) IsDebug() bool {
	if l == nil {
		return false
	}
	return l.logLevel >= LevelDebug
}

// logcontext get the level of current message
type logcontext struct {
	mylog *MyLog
	lvl   Level
}

// Printf print message on configured writers.
// Errors and warnings are written on the console writer, warnings only when
// not quiet. The file writer receives messages up to the configured level.
// A FATAL message terminates the program.
// If the logger isn't initialized, errors and warnings go to the standard
// logger and the other levels are dropped.
func (c logcontext) Printf(format string, args ...interface{}) {
	if c.mylog == nil {
		switch {
		case c.lvl == LevelFatal:
			log.Fatalf(prefixes[c.lvl]+format, args...)
		case c.lvl <= LevelWarning:
			log.Printf(prefixes[c.lvl]+format, args...)
		}
		return
	}
	onConsole := c.lvl <= LevelError || (c.lvl == LevelWarning && !c.mylog.quiet)
	if onConsole && c.mylog.consoleLogger != nil {
		c.mylog.consoleLogger.Printf(prefixes[c.lvl]+format, args...)
	}
	if c.mylog.fileLogger != nil && c.lvl <= c.mylog.logLevel {
		c.mylog.fileLogger.Printf(prefixes[c.lvl]+format, args...)
	}
	if c.lvl == LevelFatal {
		if c.mylog.consoleLogger == nil {
			log.Printf(prefixes[c.lvl]+format, args...)
		}
		c.mylog.exit(1)
	}
}
