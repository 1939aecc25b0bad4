package mylog

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
)

type recorder struct {
	lines []string
}

func (r *recorder) Printf(f string, a ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(f, a...))
}

func TestLevels(t *testing.T) {
	console, file := &recorder{}, &recorder{}
	l, err := NewLog("info", console, file)
	if err != nil {
		t.Fatal(err)
	}

	l.Error().Printf("e %d", 1)
	l.Warning().Printf("w")
	l.Info().Printf("i")
	l.Debug().Printf("d")

	if got := strings.Join(console.lines, "|"); got != "[ERROR] e 1|[WARN ] w" {
		t.Errorf("unexpected console output %q", got)
	}
	if got := strings.Join(file.lines, "|"); got != "[ERROR] e 1|[WARN ] w|[INFO ] i" {
		t.Errorf("unexpected file output %q", got)
	}
}

func TestQuietDropsWarnings(t *testing.T) {
	console := &recorder{}
	l, err := NewLog("ERROR", console, nil)
	if err != nil {
		t.Fatal(err)
	}
	l.SetQuiet(true)
	l.Warning().Printf("hidden")
	l.Error().Printf("shown")
	if len(console.lines) != 1 || console.lines[0] != "[ERROR] shown" {
		t.Errorf("unexpected console output %v", console.lines)
	}
}

func TestFatalExits(t *testing.T) {
	console := &recorder{}
	l, err := NewLog("ERROR", console, nil)
	if err != nil {
		t.Fatal(err)
	}
	code := -1
	l.exit = func(c int) { code = c }
	l.Fatal().Printf("boom")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := NewLog("LOUD", nil, nil); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNilLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	var l *MyLog
	l.Error().Printf("e")
	l.Warning().Printf("w")
	l.Info().Printf("i")
	l.Trace().Printf("t")
	l.Debug().Printf("d")

	if got := buf.String(); got != "[ERROR] e\n[WARN ] w\n" {
		t.Errorf("unexpected standard logger output %q", got)
	}
	if l.IsDebug() {
		t.Error("a nil logger shouldn't be in debug mode")
	}
}
