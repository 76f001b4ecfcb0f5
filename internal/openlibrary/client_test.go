package openlibrary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosifache/booksearch/internal/search"
)

const sampleSearchJSON = `{
  "num_found": 1234,
  "start": 0,
  "docs": [
    {"title": "Clean Code", "author_name": ["Robert C. Martin"], "cover_edition_key": "OL22143325M", "key": "/works/OL1W"},
    {"title": "The Clean Coder", "author_name": ["Robert C. Martin", "Someone Else"]},
    {"title": "Anonymous"}
  ]
}`

func TestQueryToken(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"two words", "Clean Code", "clean+code"},
		{"collapsed whitespace", "  Clean \t  Code ", "clean+code"},
		{"single word", "Dune", "dune"},
		{"literal plus", "C++ Primer", "c%2B%2B+primer"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QueryToken(tt.text))
		})
	}
}

func TestRequestURL(t *testing.T) {
	c := NewClient("https://openlibrary.org/search.json", 0, "")

	got, err := c.RequestURL(search.Params{SearchText: "Clean Code", PageSize: 10, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, "https://openlibrary.org/search.json?limit=10&page=1&q=clean+code", got)
}

func TestSearchDecodesResponse(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleSearchJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/search.json", time.Second, "booksearch-test")
	result, err := c.Search(context.Background(), search.Params{SearchText: "Clean Code", PageSize: 10, Page: 1})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "q=clean+code")
	assert.Contains(t, gotQuery, "page=1")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Equal(t, "booksearch-test", gotUA)

	assert.Equal(t, 1234, result.TotalFound)
	require.Len(t, result.Items, 3)
	assert.Equal(t, search.Book{Title: "Clean Code", Authors: []string{"Robert C. Martin"}, CoverID: "OL22143325M"}, result.Items[0])
	assert.Equal(t, []string{"Robert C. Martin", "Someone Else"}, result.Items[1].Authors)
	assert.Empty(t, result.Items[2].CoverID)
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			status: http.StatusNotFound,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"num_found": "many", "docs": [`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, "")
			_, err := c.Search(context.Background(), search.Params{SearchText: "zzzzzzz-no-match", PageSize: 10, Page: 1})
			require.Error(t, err)

			var terr *TransportError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.status, terr.Status)
		})
	}
}

func TestSearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := NewClient(endpoint, time.Second, "")
	_, err := c.Search(context.Background(), search.Params{SearchText: "dune", PageSize: 10, Page: 1})

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
}

func TestSearchHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, 5*time.Second, "")
	_, err := c.Search(ctx, search.Params{SearchText: "dune", PageSize: 10, Page: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherRecoversFromClientFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := search.NewChanNotifier(1, nil)
	f := search.NewFetcher(context.Background(), NewClient(srv.URL, time.Second, ""), notifier, nil)
	defer f.Close()

	f.Fetch(search.Params{SearchText: "zzzzzzz-no-match", PageSize: 10, Page: 1})
	f.Wait()

	got, ok := f.Latest()
	require.True(t, ok)
	assert.Equal(t, search.Result{TotalFound: 0, Items: []search.Book{}}, got)
	assert.False(t, f.IsLoading())
	assert.Len(t, notifier.Drain(), 1)
}
