package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the fetcher's position in its per-search state machine.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseFetching       Phase = "fetching"
	PhaseDisplayed      Phase = "displayed"
	PhaseDisplayedEmpty Phase = "displayed_empty_on_error"
)

// Fetcher runs searches with a switch-latest policy: each fetch is tagged
// with a sequence number and only the outcome of the latest issued fetch
// reaches the result stream.
type Fetcher struct {
	searcher Searcher
	notifier Notifier
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	seq        uint64
	cancelLast context.CancelFunc
	last       *Params
	phase      Phase
	fetching   bool

	// pubMu makes check-and-publish atomic with respect to Fetch: no
	// outcome is published once a newer fetch has been issued. Result and
	// loading listeners must not call Fetch.
	pubMu sync.Mutex
	// loadMu serializes loading publications.
	loadMu sync.Mutex

	results *subject[Result]
	loading *subject[bool]
}

// NewFetcher creates an idle fetcher. Every search runs under ctx; notifier
// may be nil.
func NewFetcher(ctx context.Context, searcher Searcher, notifier Notifier, log *zap.Logger) *Fetcher {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	f := &Fetcher{
		searcher: searcher,
		notifier: notifier,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseIdle,
		results:  newSubject[Result](),
		loading:  newSubject[bool](),
	}
	f.syncLoading()
	return f
}

// Attach drives the fetcher from the reconciler's state stream. Nil state
// and blank search text never reach the network.
func (f *Fetcher) Attach(r *Reconciler) func() {
	return r.Subscribe(func(p *Params) {
		if p == nil || !p.Searchable() {
			return
		}
		f.Fetch(*p)
	})
}

// Fetch issues a search for params, superseding any fetch in flight, and
// returns its sequence number.
func (f *Fetcher) Fetch(params Params) uint64 {
	f.pubMu.Lock()
	f.mu.Lock()
	if f.cancelLast != nil {
		f.cancelLast()
	}
	f.seq++
	seq := f.seq
	ctx, cancel := context.WithCancel(f.ctx)
	f.cancelLast = cancel
	p := params
	f.last = &p
	f.phase = PhaseFetching
	f.fetching = true
	f.wg.Add(1)
	f.mu.Unlock()
	f.pubMu.Unlock()

	f.syncLoading()

	go f.run(ctx, cancel, seq, params)
	return seq
}

// Refresh re-issues the last requested params. It returns false when nothing
// was fetched yet.
func (f *Fetcher) Refresh() bool {
	f.mu.Lock()
	last := f.last
	f.mu.Unlock()

	if last == nil {
		return false
	}
	f.Fetch(*last)
	return true
}

func (f *Fetcher) run(ctx context.Context, cancel context.CancelFunc, seq uint64, params Params) {
	defer f.wg.Done()
	defer cancel()

	requestID := uuid.NewString()
	log := f.log.With(
		zap.String("request_id", requestID),
		zap.Uint64("seq", seq),
		zap.String("searchText", params.SearchText),
		zap.Int("page", params.Page),
		zap.Int("pageSize", params.PageSize),
	)

	log.Info("Search request issued")
	start := time.Now()
	result, err := f.searcher.Search(ctx, params)

	if !f.isLatest(seq) {
		log.Debug("Discarding superseded search outcome", zap.Error(err))
		return
	}

	if err != nil {
		log.Error("Search request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		f.notifier.Notify(Notification{
			Level:   LevelError,
			Message: "An unexpected error occurred while searching",
			Err:     err,
		})
		result = EmptyResult()
	} else {
		if result.Items == nil {
			result.Items = []Book{}
		}
		log.Info("Search request completed",
			zap.Int("totalFound", result.TotalFound),
			zap.Int("resultsCount", len(result.Items)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	f.pubMu.Lock()
	defer f.pubMu.Unlock()

	f.mu.Lock()
	if latest := f.seq; seq != latest {
		f.mu.Unlock()
		log.Debug("Discarding superseded search outcome",
			zap.Uint64("latest", latest),
			zap.Error(err),
		)
		return
	}
	f.fetching = false
	if err != nil {
		f.phase = PhaseDisplayedEmpty
	} else {
		f.phase = PhaseDisplayed
	}
	f.mu.Unlock()

	f.syncLoading()
	f.results.publish(result)
}

func (f *Fetcher) isLatest(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return seq == f.seq
}

func (f *Fetcher) syncLoading() {
	f.loadMu.Lock()
	defer f.loadMu.Unlock()

	f.mu.Lock()
	v := f.fetching
	f.mu.Unlock()

	f.loading.publish(v)
}

// Subscribe registers fn on the result stream. The last applied result is
// replayed immediately.
func (f *Fetcher) Subscribe(fn func(Result)) func() {
	return f.results.subscribe(fn)
}

// SubscribeLoading registers fn for loading flag changes.
func (f *Fetcher) SubscribeLoading(fn func(bool)) func() {
	return f.loading.subscribe(fn)
}

// Latest returns the last applied result.
func (f *Fetcher) Latest() (Result, bool) {
	return f.results.latest()
}

// IsLoading reports whether the latest fetch is still outstanding.
func (f *Fetcher) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetching
}

// Phase returns the current state machine phase.
func (f *Fetcher) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Wait blocks until every issued fetch has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

// Close cancels outstanding fetches and waits for them.
func (f *Fetcher) Close() {
	f.cancel()
	f.wg.Wait()
}
