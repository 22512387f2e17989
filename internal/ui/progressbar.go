// Package ui renders export progress on the terminal.
package ui

import (
	"io"
	"os"
	"time"

	"github.com/fbz-tec/dbxport/core/exporters"
	"github.com/schollz/progressbar/v3"
)

// Progress is an exporters.Observer driving an indeterminate progress bar.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress renders on stderr.
func NewProgress(description string) *Progress {
	return NewProgressTo(os.Stderr, description)
}

func NewProgressTo(w io.Writer, description string) *Progress {
	return &Progress{bar: newProgressBar(w, description)}
}

func newProgressBar(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(false),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(false),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
	)
}

func (p *Progress) RowsWritten(_ *exporters.Job, n int) {
	_ = p.bar.Add(n)
}

func (p *Progress) JobFinished(*exporters.Job, exporters.Result) {
	_ = p.bar.Finish()
}

// Rows returns the number of rows reported so far.
func (p *Progress) Rows() int64 {
	return int64(p.bar.State().CurrentNum)
}
