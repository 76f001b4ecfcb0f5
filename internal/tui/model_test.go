package tui

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosifache/booksearch/internal/search"
	"github.com/iosifache/booksearch/internal/urlstate"
)

func fixedSearcher(total int) search.Searcher {
	return search.SearcherFunc(func(_ context.Context, p search.Params) (search.Result, error) {
		items := make([]search.Book, 0, p.PageSize)
		for i := 0; i < p.PageSize; i++ {
			items = append(items, search.Book{Title: fmt.Sprintf("%s %d", p.SearchText, (p.Page-1)*p.PageSize+i+1)})
		}
		return search.Result{TotalFound: total, Items: items}, nil
	})
}

func newTestModel(t *testing.T, initial url.Values) *Model {
	t.Helper()
	m := New(context.Background(), Options{
		Store:    urlstate.New(initial),
		Searcher: fixedSearcher(45),
		Config:   search.Config{DefaultPageSize: 10},
	})
	t.Cleanup(m.Close)
	return m
}

// settle waits for the pipeline and feeds the resulting change to Update.
func settle(m *Model) {
	m.pipeline.Fetcher.Wait()
	m.Update(stateChangedMsg{})
}

func typeText(m *Model, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestTypingThenEnterSearches(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "dune")
	assert.Equal(t, "dune", m.pipeline.Reconciler.SearchText())
	assert.Nil(t, m.pipeline.Reconciler.Current())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	require.NotNil(t, m.params)
	assert.Equal(t, search.Params{SearchText: "dune", PageSize: 10, Page: 1}, *m.params)
	require.NotNil(t, m.result)
	assert.Len(t, m.result.Items, 10)
	assert.Equal(t, "page=1&pageSize=10&searchText=dune", m.store.Encode())
	assert.Equal(t, 5, m.pager.TotalPages)
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "dune 1")
}

func TestEnterWithBlankTextShowsError(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotEmpty(t, m.status)
	assert.Nil(t, m.pipeline.Reconciler.Current())
	assert.Empty(t, m.store.Encode())
}

func TestPagingKeys(t *testing.T) {
	m := newTestModel(t, url.Values{"searchText": {"dune"}})
	settle(m)
	require.NotNil(t, m.params)

	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	settle(m)
	assert.Equal(t, 2, m.params.Page)
	assert.Equal(t, "dune 11", m.result.Items[0].Title)

	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	settle(m)
	assert.Equal(t, 1, m.params.Page)

	// already on the first page
	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	settle(m)
	assert.Equal(t, 1, m.params.Page)
}

func TestPageSizeCycles(t *testing.T) {
	m := newTestModel(t, url.Values{"searchText": {"dune"}, "page": {"3"}})
	settle(m)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	settle(m)
	assert.Equal(t, search.Params{SearchText: "dune", PageSize: 20, Page: 1}, *m.params)

	assert.Equal(t, 50, nextPageSize(20))
	assert.Equal(t, 10, nextPageSize(50))
	assert.Equal(t, 10, nextPageSize(7))
}

func TestBackRestoresInput(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "dune")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	m.input.SetValue("")
	typeText(m, "ubik")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)
	assert.Equal(t, "ubik", m.params.SearchText)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	settle(m)
	assert.Equal(t, "dune", m.params.SearchText)
	assert.Equal(t, "dune", m.input.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlCloseBracket})
	settle(m)
	assert.Equal(t, "ubik", m.params.SearchText)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBlankSearchKeepsDisplayedResult(t *testing.T) {
	m := newTestModel(t, nil)

	typeText(m, "dune")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)
	params, result := m.params, m.result
	require.NotNil(t, result)

	m.input.SetValue("")
	m.pipeline.Reconciler.SetSearchText("")
	typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	settle(m)

	assert.Equal(t, "search text cannot be empty", m.status)
	assert.Same(t, params, m.params)
	assert.Equal(t, *result, *m.result)
	assert.Equal(t, "page=1&pageSize=10&searchText=dune", m.store.Encode())
	assert.Contains(t, m.View(), "dune 1")
}
