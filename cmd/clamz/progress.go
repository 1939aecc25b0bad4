package main

import (
	"context"
	"io"
	"path/filepath"
	"unicode"

	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/wlevine/clamz/playlists/amz"
)

const (
	barWidth   = 33
	labelWidth = 32
)

// trackBars shows one progress bar per track.
type trackBars struct {
	pc    *mpb.Progress
	ascii bool
	label string
	bar   *mpb.Bar
}

func newTrackBars(ctx context.Context, w io.Writer, ascii bool) *trackBars {
	return &trackBars{
		pc: mpb.NewWithContext(
			ctx,
			mpb.WithOutput(w),
			mpb.WithWidth(barWidth),
		),
		ascii: ascii,
	}
}

// asciiOnly replaces characters the terminal can't show.
var asciiOnly = runes.Map(func(r rune) rune {
	if r > unicode.MaxASCII {
		return '?'
	}
	return r
})

func (b *trackBars) Init(tr *amz.Track, path string) {
	l := tr.Title
	if l == "" {
		l = filepath.Base(path)
	}
	if b.ascii {
		if s, _, err := transform.String(asciiOnly, l); err == nil {
			l = s
		}
	}
	b.label = left(l, labelWidth)
	b.bar = nil
}

// The bar is created by the first update, once it is known whether the
// transfer has a size.
func (b *trackBars) Update(percent int) {
	if b.bar == nil {
		b.bar = b.newBar(percent < 0)
	}
	if percent >= 0 {
		b.bar.SetCurrent(int64(percent))
	}
}

func (b *trackBars) newBar(spinner bool) *mpb.Bar {
	if spinner {
		return b.pc.AddBar(100,
			mpb.BarWidth(3),
			mpb.PrependDecorators(
				decor.Name(b.label, decor.WC{W: labelWidth + 1, C: decor.DidentRight}),
				decor.Spinner([]string{"●∙∙", "∙●∙", "∙∙●", "∙●∙"}, decor.WCSyncSpace),
			),
		)
	}
	return b.pc.AddBar(100,
		mpb.BarWidth(barWidth),
		mpb.PrependDecorators(
			decor.Name(b.label, decor.WC{W: labelWidth + 1, C: decor.DidentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
		),
	)
}

func (b *trackBars) Done(err error) {
	if b.bar == nil {
		return
	}
	if err != nil {
		b.bar.Abort(false)
	} else {
		b.bar.SetTotal(100, true)
		b.bar.SetCurrent(100)
	}
	b.bar = nil
}

// Wait flushes the bars.
func (b *trackBars) Wait() {
	b.pc.Wait()
}

func left(s string, l int) string {
	r := []rune(s)
	if len(r) > l {
		return string(r[:l])
	}
	return s
}
