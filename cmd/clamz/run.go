package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wlevine/clamz/config"
	"github.com/wlevine/clamz/download"
	"github.com/wlevine/clamz/mylog"
	"github.com/wlevine/clamz/net/http"
	"github.com/wlevine/clamz/playlists/amz"
)

type app struct {
	cfg    *config.Config
	dirs   config.Dirs
	logger *mylog.MyLog
	client *http.Client
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	bars   *trackBars
}

// Run processes the manifests in turn and stops at the first one that
// fails. It returns the status of that manifest.
func (a *app) Run(ctx context.Context, files []string) download.Status {
	var dl *download.Downloader
	if !a.cfg.PrintAsXML {
		opts := []download.ConfigurationFunction{download.WithLogger(a.logger)}
		if !a.cfg.Quiet && !a.cfg.PrintOnly {
			a.bars = newTrackBars(ctx, a.stderr, !a.cfg.UTF8Locale)
			opts = append(opts, download.WithProgresser(a.bars))
		}
		var err error
		dl, err = download.New(a.cfg.DownloadSettings(), a.client, opts...)
		if err != nil {
			a.logger.Error().Printf("%s", err)
			return download.StatusSetup
		}
	}

	status := download.StatusOK
	n := 0
	for _, f := range files {
		status = a.runFile(ctx, dl, f)
		if status != download.StatusOK {
			break
		}
		n++
	}
	if a.bars != nil {
		a.bars.Wait()
	}

	if !a.cfg.Quiet && !a.cfg.PrintOnly {
		fmt.Fprintf(a.stderr, "%d of %d AMZ files downloaded successfully.\n", n, len(files))
	}
	return status
}

// runFile handles one manifest. The name - is the standard input.
func (a *app) runFile(ctx context.Context, dl *download.Downloader, name string) download.Status {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		name = "clamz-stdin-" + uuid.New().String()
		data, err = ioutil.ReadAll(a.stdin)
	} else {
		data, err = ioutil.ReadFile(name)
	}
	if err != nil {
		a.logger.Error().Printf("%s", err)
		return download.StatusInput
	}
	base := filepath.Base(name)

	if a.cfg.PrintAsXML {
		text, err := amz.Decode(data, name, a.logger)
		if err != nil {
			a.logger.Error().Printf("%s", err)
			return download.StatusInput
		}
		if _, err := a.stdout.Write(text); err != nil {
			a.logger.Error().Printf("[MAIN] Can't write XML of '%s': %s", name, err)
			return download.StatusSideFile
		}
		return download.StatusOK
	}

	if !a.cfg.PrintOnly {
		if err := a.backup(data, base); err != nil {
			a.logger.Error().Printf("[MAIN] Can't save a copy of '%s': %s", name, err)
			return download.StatusSideFile
		}
	}

	pl, err := amz.Read(data, name, a.logger)
	if err != nil {
		a.logger.Error().Printf("%s", err)
		return download.StatusInput
	}

	if !a.cfg.PrintOnly {
		tf, err := a.transcript(base)
		if err != nil {
			a.logger.Error().Printf("[MAIN] %s", err)
			return download.StatusSideFile
		}
		a.client.SetTranscript(tf)
		defer func() {
			a.client.SetTranscript(nil)
			tf.Close()
		}()
	}

	info := a.cfg.PrintOnly || a.cfg.Verbose
	if info {
		if err := amz.WriteInfo(a.stdout, pl, name); err != nil {
			return a.writeFailed(name, err)
		}
	}
	status := download.StatusOK
	for i, tr := range pl.Tracks {
		if info {
			if err := amz.WriteTrackInfo(a.stdout, tr, i+1); err != nil {
				return a.writeFailed(name, err)
			}
		}
		r := dl.Download(ctx, tr)
		if a.cfg.PrintOnly && r.State == download.PathResolved {
			if _, err := fmt.Fprintf(a.stdout, "  Output to \"%s\"\n", r.Path); err != nil {
				return a.writeFailed(name, err)
			}
		}
		status = download.Worst(status, r.Status())
	}
	return status
}

func (a *app) writeFailed(name string, err error) download.Status {
	a.logger.Error().Printf("[MAIN] Can't write information about '%s': %s", name, err)
	return download.StatusSideFile
}

// backup keeps a copy of the manifest in ~/.clamz/amzfiles.
func (a *app) backup(data []byte, base string) error {
	name, err := a.dirs.File("amzfiles", base, "")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(name, data, 0666)
}

// transcript creates ~/.clamz/logs/<base>.log.
func (a *app) transcript(base string) (*os.File, error) {
	name, err := a.dirs.File("logs", base, ".log")
	if err != nil {
		return nil, err
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("can't create transcript: %w", err)
	}
	return f, nil
}
