package modes

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/urlstate"
)

// SearchOutcome is the settled state of one short-lived pipeline.
type SearchOutcome struct {
	Params        *search.Params        `json:"params"`
	Result        *search.Result        `json:"result"`
	Location      string                `json:"location"`
	Notifications []search.Notification `json:"notifications,omitempty"`
}

// session is a pipeline over its own URL store, used by modes that handle
// one request at a time (CLI, web, MCP). Its fetches end with ctx.
type session struct {
	store    *urlstate.Store
	notifier *search.ChanNotifier
	pipeline *search.Pipeline
}

func newSession(ctx context.Context, env *Env, searcher search.Searcher, location url.Values) *session {
	l := logger.GetLogger()
	store := urlstate.New(location)
	notifier := search.NewChanNotifier(8, l)
	return &session{
		store:    store,
		notifier: notifier,
		pipeline: search.NewPipeline(ctx, store, searcher, notifier, env.SearchConfig(), l),
	}
}

func (s *session) reconciler() *search.Reconciler {
	return s.pipeline.Reconciler
}

// settle waits for the fetch triggered by the last state change.
func (s *session) settle() SearchOutcome {
	params, result, ok := s.pipeline.Settle()
	out := SearchOutcome{
		Params:        params,
		Location:      s.store.Encode(),
		Notifications: s.notifier.Drain(),
	}
	if ok {
		out.Result = &result
	}
	return out
}

func (s *session) close() {
	s.pipeline.Close()
}

// runSearch performs a search for term at the given 1-based page.
func runSearch(ctx context.Context, env *Env, searcher search.Searcher, term string, page, pageSize int) (SearchOutcome, error) {
	s := newSession(ctx, env, searcher, nil)
	defer s.close()

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = env.DefaultPageSize
	}

	s.reconciler().SetSearchText(term)
	if _, err := s.reconciler().SetPage(page-1, pageSize); err != nil {
		logger.GetLogger().Warn("Search rejected", zap.String("searchTerm", term), zap.Error(err))
		return SearchOutcome{}, err
	}
	return s.settle(), nil
}
