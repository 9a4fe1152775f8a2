package main

import (
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"
)

// blocksProgress displays the number of blocks computed so far.
type blocksProgress struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// newBlocksProgress creates a progress bar for numBlocks blocks written to w.
// Colors and Unicode symbols are only used if w is a terminal that supports them.
func newBlocksProgress(w io.Writer, numBlocks int) *blocksProgress {
	theme := progressbar.ThemeUnicode
	colors := true
	if termenv.NewOutput(w).Profile == termenv.Ascii {
		theme = progressbar.ThemeASCII
		colors = false
	}
	description := "blocks"
	if colors {
		description = "[bold]blocks[reset]"
	}
	return &blocksProgress{
		w: w,
		bar: progressbar.NewOptions(numBlocks,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionEnableColorCodes(colors),
			progressbar.OptionSetTheme(theme),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("blocks"),
			progressbar.OptionThrottle(100*time.Millisecond),
		),
	}
}

// update implements the callback of mapreduce.Engine.WithProgress.
func (p *blocksProgress) update(done, _ int) {
	_ = p.bar.Set(done)
}

func (p *blocksProgress) finish() {
	_ = p.bar.Finish()
	_, _ = fmt.Fprintln(p.w)
}
