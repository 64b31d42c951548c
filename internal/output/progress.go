package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
)

// Progress is an events.Handler that aggregates byte counts over every
// download it observes and renders them as a single status line.
type Progress struct {
	out      io.Writer
	label    string
	start    time.Time
	total    atomic.Int64
	done     atomic.Int64
	finished atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewProgress(out io.Writer, label string) *Progress {
	return &Progress{
		out:    out,
		label:  label,
		start:  time.Now(),
		stopCh: make(chan struct{}),
	}
}

func (p *Progress) ContentLength(length int64) {
	p.total.Add(length)
}

func (p *Progress) Write(b []byte) {
	p.done.Add(int64(len(b)))
}

func (p *Progress) Finish(afero.File) {
	p.finished.Add(1)
}

func (p *Progress) Done() int64 {
	return p.done.Load()
}

func (p *Progress) Finished() int64 {
	return p.finished.Load()
}

func (p *Progress) Render() string {
	done, total := p.done.Load(), p.total.Load()
	elapsed := time.Since(p.start).Seconds()
	size := FormatBytes(uint64(done))
	if total > 0 {
		size += " / " + FormatBytes(uint64(total))
	}
	return fmt.Sprintf("%s %s %s %s %s %s %s",
		FPending(StyleSymbols["pending"]),
		FDetail(p.label),
		FDebug(ProgressBar(done, total, 30)),
		FDebug(size),
		StyleSymbols["bullet"],
		FDebug(FormatSpeed(done, elapsed)),
		FDebug(fmt.Sprintf("(%d done)", p.finished.Load())),
	)
}

// Start redraws the status line every interval until Stop is called.
func (p *Progress) Start(interval time.Duration) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(p.out, "\r\033[K%s", p.Render())
			case <-p.stopCh:
				fmt.Fprintf(p.out, "\r\033[K%s\n", p.Render())
				return
			}
		}
	}()
}

func (p *Progress) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}
