package search

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosifache/booksearch/internal/urlstate"
)

func TestParamsRoundTrip(t *testing.T) {
	want := Params{SearchText: "dune", PageSize: 10, Page: 2}

	got, ok := DecodeParams(want.Values(), Params{PageSize: 99, Page: 99})
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDecodeParamsFallbacks(t *testing.T) {
	fallback := Params{SearchText: "staged", PageSize: 10, Page: 1}

	tests := []struct {
		name   string
		values url.Values
		want   Params
		ok     bool
	}{
		{"no params", url.Values{}, Params{}, false},
		{"text only", url.Values{"searchText": {"emma"}}, Params{SearchText: "emma", PageSize: 10, Page: 1}, true},
		{"invalid numbers", url.Values{"pageSize": {"abc"}, "page": {"-3"}}, Params{SearchText: "staged", PageSize: 10, Page: 1}, true},
		{"zero page size", url.Values{"searchText": {"x"}, "pageSize": {"0"}, "page": {"4"}}, Params{SearchText: "x", PageSize: 10, Page: 4}, true},
		{"unrelated params only", url.Values{"utm": {"a"}}, fallback, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeParams(tt.values, fallback)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestReconcilerStartsEmpty(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()

	assert.Nil(t, r.Current())

	var seen []*Params
	r.Subscribe(func(p *Params) { seen = append(seen, p) })
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])
}

func TestReconcilerInitializesFromURL(t *testing.T) {
	store, err := urlstate.Parse("searchText=dune&page=3")
	require.NoError(t, err)

	r := NewReconciler(store, Config{DefaultPageSize: 25}, nil)
	defer r.Close()

	require.NotNil(t, r.Current())
	assert.Equal(t, Params{SearchText: "dune", PageSize: 25, Page: 3}, *r.Current())
	assert.Equal(t, "dune", r.SearchText())
}

func TestSubmitRejectsBlankText(t *testing.T) {
	store := urlstate.New(nil)
	r := NewReconciler(store, Config{}, nil)
	defer r.Close()

	for _, text := range []string{"", " ", "\t\n  "} {
		r.SetSearchText(text)
		_, err := r.Search()

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, KeySearchText, verr.Field)
		assert.Nil(t, r.Current())
		assert.Empty(t, store.Values())
	}
}

func TestSetSearchTextDoesNotEmit(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()

	emissions := 0
	r.Subscribe(func(*Params) { emissions++ })
	r.SetSearchText("dune")

	assert.Equal(t, 1, emissions) // the replayed nil only
	assert.Nil(t, r.Current())
}

func TestSearchWritesURLAndEmits(t *testing.T) {
	store := urlstate.New(url.Values{"theme": {"dark"}})
	r := NewReconciler(store, Config{DefaultPageSize: 10}, nil)
	defer r.Close()

	r.SetSearchText("Clean Code")
	params, err := r.Search()
	require.NoError(t, err)
	assert.Equal(t, Params{SearchText: "Clean Code", PageSize: 10, Page: 1}, params)

	values := store.Values()
	assert.Equal(t, "Clean Code", values.Get("searchText"))
	assert.Equal(t, "1", values.Get("page"))
	assert.Equal(t, "10", values.Get("pageSize"))
	assert.Equal(t, "dark", values.Get("theme"))

	require.NotNil(t, r.Current())
	assert.Equal(t, params, *r.Current())
}

func TestSearchTrimsText(t *testing.T) {
	store := urlstate.New(nil)
	r := NewReconciler(store, Config{}, nil)
	defer r.Close()

	r.SetSearchText("  dune  ")
	params, err := r.Search()
	require.NoError(t, err)
	assert.Equal(t, "dune", params.SearchText)
	assert.Equal(t, "dune", store.Values().Get("searchText"))
}

func TestSetPageConvertsToOneBased(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()

	r.SetSearchText("dune")
	_, err := r.Search()
	require.NoError(t, err)

	params, err := r.SetPage(2, 20)
	require.NoError(t, err)
	assert.Equal(t, Params{SearchText: "dune", PageSize: 20, Page: 3}, params)
	assert.Equal(t, params, *r.Current())
}

func TestSetPageValidation(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()
	r.SetSearchText("dune")

	_, err := r.SetPage(-1, 10)
	assert.Error(t, err)
	_, err = r.SetPage(0, 0)
	assert.Error(t, err)
	assert.Nil(t, r.Current())
}

func TestSearchResetsPage(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()

	r.SetSearchText("dune")
	_, err := r.SetPage(4, 10)
	require.NoError(t, err)

	r.SetSearchText("emma")
	params, err := r.Search()
	require.NoError(t, err)
	assert.Equal(t, 1, params.Page)
}

func TestBackNavigationRestoresState(t *testing.T) {
	store := urlstate.New(nil)
	r := NewReconciler(store, Config{}, nil)
	defer r.Close()

	r.SetSearchText("dune")
	_, err := r.Search()
	require.NoError(t, err)
	_, err = r.SetPage(1, 10)
	require.NoError(t, err)

	require.True(t, store.Back())
	assert.Equal(t, Params{SearchText: "dune", PageSize: 10, Page: 1}, *r.Current())

	require.True(t, store.Forward())
	assert.Equal(t, 2, r.Current().Page)
}

func TestLocation(t *testing.T) {
	r := NewReconciler(urlstate.New(nil), Config{}, nil)
	defer r.Close()

	r.SetSearchText("Clean Code")
	_, err := r.Search()
	require.NoError(t, err)
	assert.Equal(t, "page=1&pageSize=10&searchText=Clean+Code", r.Location())
}
