package search

import (
	"context"

	"go.uber.org/zap"
)

// Pipeline is one reconciler driving one fetcher over a URL store.
type Pipeline struct {
	Reconciler *Reconciler
	Fetcher    *Fetcher

	detach func()
}

// NewPipeline wires the components. Fetches run under ctx. When the store
// already carries a search, the first fetch is issued before NewPipeline
// returns.
func NewPipeline(ctx context.Context, store URLStore, searcher Searcher, notifier Notifier, cfg Config, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	fetcher := NewFetcher(ctx, searcher, notifier, log.Named("fetcher"))
	reconciler := NewReconciler(store, cfg, log.Named("reconciler"))

	return &Pipeline{
		Reconciler: reconciler,
		Fetcher:    fetcher,
		detach:     fetcher.Attach(reconciler),
	}
}

// Settle waits for outstanding fetches and returns the displayed result.
// ok is false when no search has run.
func (p *Pipeline) Settle() (params *Params, result Result, ok bool) {
	p.Fetcher.Wait()
	result, ok = p.Fetcher.Latest()
	return p.Reconciler.Current(), result, ok
}

// Close detaches and stops both components.
func (p *Pipeline) Close() {
	p.detach()
	p.Reconciler.Close()
	p.Fetcher.Close()
}
