// Package progress renders terminal progress bars for long-running steps.
package progress

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Bar tracks one unit of work.
type Bar interface {
	Increment()
	SetCurrent(n int64)
	// Done finishes the bar, aborting it when it never reached its total.
	Done()
}

// Reporter creates bars and waits for them to finish rendering.
type Reporter interface {
	NewBar(name string, total int64) Bar
	Wait()
}

// New returns an mpb-backed Reporter writing to w, or a Noop when disabled.
func New(w io.Writer, enabled bool) Reporter {
	if !enabled || w == nil {
		return Noop{}
	}
	return &terminal{w: w}
}

// terminal owns one mpb container per group of bars. Wait retires the
// container, so the next NewBar starts a fresh one.
type terminal struct {
	w  io.Writer
	mu sync.Mutex
	p  *mpb.Progress
}

func (t *terminal) NewBar(name string, total int64) Bar {
	t.mu.Lock()
	if t.p == nil {
		// Auto refresh also renders to writers that are not terminals.
		t.p = mpb.New(mpb.WithWidth(64), mpb.WithOutput(t.w), mpb.WithAutoRefresh())
	}
	p := t.p
	t.mu.Unlock()

	bar := p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name+" "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name(" "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	return &terminalBar{bar: bar}
}

func (t *terminal) Wait() {
	t.mu.Lock()
	p := t.p
	t.p = nil
	t.mu.Unlock()

	if p != nil {
		p.Wait()
	}
}

type terminalBar struct {
	bar *mpb.Bar
}

func (b *terminalBar) Increment()         { b.bar.Increment() }
func (b *terminalBar) SetCurrent(n int64) { b.bar.SetCurrent(n) }

func (b *terminalBar) Done() {
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
}

// Noop discards all progress updates.
type Noop struct{}

func (Noop) NewBar(string, int64) Bar { return noopBar{} }
func (Noop) Wait()                    {}

type noopBar struct{}

func (noopBar) Increment()       {}
func (noopBar) SetCurrent(int64) {}
func (noopBar) Done()            {}
