package search

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// URLStore is the query-string location the reconciler mirrors its state
// into. Merge must notify subscribers synchronously when the location
// changes.
type URLStore interface {
	Values() url.Values
	Merge(params url.Values) bool
	Subscribe(fn func(url.Values)) func()
}

// Config is injected into the reconciler at construction.
type Config struct {
	// DefaultPageSize is used when the URL carries no valid page size.
	// Zero or negative means DefaultPageSize (10).
	DefaultPageSize int
}

func (c Config) pageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return DefaultPageSize
}

// Reconciler owns the authoritative search parameters. User input is staged
// locally, written to the URL store on submit, and emitted on the state
// stream when the store reports the change.
type Reconciler struct {
	store URLStore
	cfg   Config
	log   *zap.Logger

	mu         sync.Mutex
	searchText string
	pageSize   int
	page       int

	state       *subject[*Params]
	unsubscribe func()
}

// NewReconciler attaches to store. When the store already carries query
// parameters they are decoded and emitted as the initial state.
func NewReconciler(store URLStore, cfg Config, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Reconciler{
		store:    store,
		cfg:      cfg,
		log:      log,
		pageSize: cfg.pageSize(),
		page:     1,
		state:    newSubject[*Params](),
	}

	r.unsubscribe = store.Subscribe(r.onLocation)
	if !r.adopt(store.Values()) {
		r.state.publish(nil)
	}
	return r
}

// onLocation is the store listener.
func (r *Reconciler) onLocation(values url.Values) {
	r.adopt(values)
}

// adopt decodes a location, adopts it as local state and emits it. It
// reports false when the location carries no search.
func (r *Reconciler) adopt(values url.Values) bool {
	r.mu.Lock()
	params, ok := DecodeParams(values, Params{
		SearchText: r.searchText,
		PageSize:   r.cfg.pageSize(),
		Page:       1,
	})
	if !ok {
		r.mu.Unlock()
		return false
	}
	params.SearchText = strings.TrimSpace(params.SearchText)
	r.searchText = params.SearchText
	r.pageSize = params.PageSize
	r.page = params.Page
	r.mu.Unlock()

	r.log.Debug("Search state changed",
		zap.String("searchText", params.SearchText),
		zap.Int("page", params.Page),
		zap.Int("pageSize", params.PageSize),
	)
	r.state.publish(&params)
	return true
}

// SetSearchText stages text for the next submit.
func (r *Reconciler) SetSearchText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchText = text
}

// SearchText returns the staged text.
func (r *Reconciler) SearchText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searchText
}

// Search starts a new search from the first page.
func (r *Reconciler) Search() (Params, error) {
	return r.submit(func() { r.page = 1 })
}

// SetPage moves to a zero-based page index with the given page size.
func (r *Reconciler) SetPage(pageIndex, pageSize int) (Params, error) {
	if pageIndex < 0 {
		return Params{}, &ValidationError{Field: KeyPage, Message: "page index cannot be negative"}
	}
	if pageSize <= 0 {
		return Params{}, &ValidationError{Field: KeyPageSize, Message: "page size must be positive"}
	}
	return r.submit(func() {
		r.pageSize = pageSize
		r.page = pageIndex + 1
	})
}

// Submit writes the staged fields into the URL store.
func (r *Reconciler) Submit() (Params, error) {
	return r.submit(nil)
}

func (r *Reconciler) submit(stage func()) (Params, error) {
	r.mu.Lock()
	text := strings.TrimSpace(r.searchText)
	if text == "" {
		r.mu.Unlock()
		return Params{}, ErrEmptySearchText
	}
	if stage != nil {
		stage()
	}
	params := Params{SearchText: text, PageSize: r.pageSize, Page: r.page}
	r.mu.Unlock()

	// the store calls back into onLocation, so no lock may be held here
	if !r.store.Merge(params.Values()) {
		r.log.Debug("Search location unchanged", zap.String("params", params.String()))
	}
	return params, nil
}

// Current returns the latest emitted params, nil before the first search.
func (r *Reconciler) Current() *Params {
	p, _ := r.state.latest()
	return p
}

// Subscribe registers fn on the state stream. fn is called immediately with
// the latest state, which may be nil.
func (r *Reconciler) Subscribe(fn func(*Params)) func() {
	return r.state.subscribe(fn)
}

// Location returns the encoded query of the URL store.
func (r *Reconciler) Location() string {
	return r.store.Values().Encode()
}

// Close detaches the reconciler from its store.
func (r *Reconciler) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
