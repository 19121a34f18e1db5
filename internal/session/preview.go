package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mrsinham/roiburn/internal/burn"
	"github.com/mrsinham/roiburn/internal/ct"
	"github.com/mrsinham/roiburn/internal/roi"
)

// PreviewResult is the outcome of one preview generation.
type PreviewResult struct {
	Generation uint64
	Series     *ct.Series
	Err        error
}

// Previewer runs preview burns in the background with at most one
// generation in flight. Each Request cancels the previous one, and only
// the latest generation is published.
type Previewer struct {
	session *Session
	publish func(PreviewResult)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest PreviewResult
	wg     sync.WaitGroup

	// pubMu is taken before mu is released so results are published in
	// generation order.
	pubMu sync.Mutex
}

// NewPreviewer returns a previewer over s. publish, when not nil, is
// called from the worker goroutine with each result that is still current.
func NewPreviewer(s *Session, publish func(PreviewResult)) *Previewer {
	return &Previewer{session: s, publish: publish}
}

// Request starts a preview of the current selection and returns its
// generation. Settings are captured before Request returns, so later
// changes to the catalog do not affect the running burn.
func (p *Previewer) Request(ctx context.Context) (uint64, error) {
	resolved, err := p.session.Resolved()
	if err != nil {
		return 0, err
	}
	series := p.session.Original()
	opts := p.session.Options
	opts.Progress = nil

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(runCtx, cancel, gen, series, resolved, opts)
	return gen, nil
}

func (p *Previewer) run(ctx context.Context, cancel context.CancelFunc, gen uint64, series *ct.Series, resolved []roi.Resolved, opts burn.Options) {
	defer p.wg.Done()
	defer cancel()

	out, err := burn.Burn(ctx, series, resolved, opts)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		slog.DebugContext(ctx, "discarding superseded preview", "generation", gen)
		return
	}
	if errors.Is(err, context.Canceled) {
		p.mu.Unlock()
		return
	}
	res := PreviewResult{Generation: gen, Series: out, Err: err}
	p.latest = res
	p.pubMu.Lock()
	p.mu.Unlock()
	defer p.pubMu.Unlock()

	if p.publish != nil {
		p.publish(res)
	}
}

// Latest returns the most recent published result.
func (p *Previewer) Latest() PreviewResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Generation returns the generation of the last request.
func (p *Previewer) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Cancel stops the in-flight preview, if any.
func (p *Previewer) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

// Wait blocks until every started preview goroutine has returned.
func (p *Previewer) Wait() {
	p.wg.Wait()
}
