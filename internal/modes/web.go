package modes

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Laisky/errors/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/urlstate"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Book search</title></head>
<body>
<form method="post" action="/search">
  <input type="hidden" name="location" value="{{.Location}}">
  <input type="text" name="searchText" value="{{.SearchText}}" placeholder="Search books" autofocus>
  <button type="submit">Search</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{range .Notifications}}<p class="notification {{.Level}}">{{.Message}}</p>{{end}}
{{with .Result}}
<p>{{.TotalFound}} books found</p>
<ul>
{{range .Items}}  <li>{{with .CoverURL "S"}}<img src="{{.}}" alt="">{{end}}<strong>{{.Title}}</strong>{{range $i, $a := .Authors}}{{if $i}},{{else}} by{{end}} {{$a}}{{end}}</li>
{{end}}</ul>
{{end}}
{{if .Pager}}<form method="post" action="/page">
  <input type="hidden" name="location" value="{{.Location}}">
  <input type="hidden" name="pageSize" value="{{.Pager.PageSize}}">
  {{if .Pager.HasPrev}}<button name="pageIndex" value="{{.Pager.PrevIndex}}">Previous</button>{{end}}
  <span>Page {{.Pager.Page}} of {{.Pager.Total}}</span>
  {{if .Pager.HasNext}}<button name="pageIndex" value="{{.Pager.NextIndex}}">Next</button>{{end}}
</form>{{end}}
</body>
</html>
`))

type pagerView struct {
	Page      int
	Total     int
	PageSize  int
	PrevIndex int
	NextIndex int
	HasPrev   bool
	HasNext   bool
}

type pageView struct {
	Location      string
	SearchText    string
	Error         string
	Result        *search.Result
	Notifications []search.Notification
	Pager         *pagerView
}

func newPageView(outcome SearchOutcome, searchText string) pageView {
	view := pageView{
		Location:      outcome.Location,
		SearchText:    searchText,
		Result:        outcome.Result,
		Notifications: outcome.Notifications,
	}
	if outcome.Params != nil && view.SearchText == "" {
		view.SearchText = outcome.Params.SearchText
	}
	if outcome.Params != nil && outcome.Result != nil {
		total := outcome.Result.TotalPages(outcome.Params.PageSize)
		if total > 1 {
			page := outcome.Params.Page
			view.Pager = &pagerView{
				Page:      page,
				Total:     total,
				PageSize:  outcome.Params.PageSize,
				PrevIndex: page - 2,
				NextIndex: page,
				HasPrev:   page > 1,
				HasNext:   page < total,
			}
		}
	}
	return view
}

// webUI serves the browser client. The browser URL is the URL store: each
// render starts a pipeline from the request query, and every change is a
// redirect to the merged location.
type webUI struct {
	env      *Env
	searcher search.Searcher
	log      *zap.Logger
}

func newWebUI(env *Env, searcher search.Searcher) *webUI {
	return &webUI{env: env, searcher: searcher, log: logger.GetLogger().Named("web")}
}

func (w *webUI) register(mux *http.ServeMux) {
	mux.HandleFunc("/", w.handleIndex)
	mux.HandleFunc("/search", w.handleSubmit)
	mux.HandleFunc("/page", w.handlePage)
	mux.HandleFunc("/api/search", w.handleAPI)
}

func (w *webUI) handleIndex(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := newSession(r.Context(), w.env, w.searcher, r.URL.Query())
	defer s.close()

	w.render(rw, http.StatusOK, newPageView(s.settle(), ""))
}

func (w *webUI) handleSubmit(rw http.ResponseWriter, r *http.Request) {
	w.handleChange(rw, r, func(rec *search.Reconciler) error {
		rec.SetSearchText(r.PostFormValue("searchText"))
		_, err := rec.Search()
		return err
	})
}

func (w *webUI) handlePage(rw http.ResponseWriter, r *http.Request) {
	w.handleChange(rw, r, func(rec *search.Reconciler) error {
		index, err := strconv.Atoi(r.PostFormValue("pageIndex"))
		if err != nil {
			return &search.ValidationError{Field: search.KeyPage, Message: "page index must be a number"}
		}
		size, err := strconv.Atoi(r.PostFormValue("pageSize"))
		if err != nil {
			return &search.ValidationError{Field: search.KeyPageSize, Message: "page size must be a number"}
		}
		_, err = rec.SetPage(index, size)
		return err
	})
}

// handleChange rebuilds the store from the posted location, applies one UI
// event and redirects to the resulting location.
func (w *webUI) handleChange(rw http.ResponseWriter, r *http.Request, apply func(*search.Reconciler) error) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(rw, "bad form", http.StatusBadRequest)
		return
	}

	location, err := url.ParseQuery(r.PostFormValue("location"))
	if err != nil {
		http.Error(rw, "bad location", http.StatusBadRequest)
		return
	}

	store := urlstate.New(location)
	rec := search.NewReconciler(store, w.env.SearchConfig(), w.log)
	defer rec.Close()

	if err := apply(rec); err != nil {
		var verr *search.ValidationError
		if !errors.As(err, &verr) {
			w.log.Error("Search change failed", zap.Error(err))
			http.Error(rw, "internal error", http.StatusInternalServerError)
			return
		}

		w.log.Info("Search change rejected", zap.String("field", verr.Field), zap.String("reason", verr.Message))
		view := newPageView(SearchOutcome{Location: store.Encode()}, r.PostFormValue("searchText"))
		view.Error = verr.Message
		w.render(rw, http.StatusUnprocessableEntity, view)
		return
	}

	http.Redirect(rw, r, "/?"+store.Encode(), http.StatusSeeOther)
}

func (w *webUI) handleAPI(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := newSession(r.Context(), w.env, w.searcher, r.URL.Query())
	defer s.close()

	rw.Header().Set("Content-Type", "application/json")
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(rw).Encode(s.settle()); err != nil {
		w.log.Error("Failed to encode search outcome", zap.Error(err))
	}
}

func (w *webUI) render(rw http.ResponseWriter, status int, view pageView) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	if err := pageTemplate.Execute(rw, view); err != nil {
		w.log.Error("Failed to render page", zap.Error(err))
	}
}
