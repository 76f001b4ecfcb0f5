package search

import (
	"context"
	"fmt"
	"strings"
)

const coverBaseURL = "https://covers.openlibrary.org/b/olid/"

// CoverSize selects the cover image variant.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// Book is one search hit.
type Book struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	CoverID string   `json:"coverId"`
}

// CoverURL returns the cover image URL, or "" when the book has no cover.
func (b Book) CoverURL(size CoverSize) string {
	if b.CoverID == "" {
		return ""
	}
	if size == "" {
		size = CoverMedium
	}
	return coverBaseURL + b.CoverID + "-" + string(size) + ".jpg"
}

func (b Book) String() string {
	authors := "Unknown"
	if len(b.Authors) > 0 {
		authors = strings.Join(b.Authors, ", ")
	}
	s := fmt.Sprintf("Title: %s\nAuthors: %s", b.Title, authors)
	if u := b.CoverURL(CoverMedium); u != "" {
		s += "\nCover: " + u
	}
	return s
}

// Result is the outcome of one search.
type Result struct {
	TotalFound int    `json:"totalFound"`
	Items      []Book `json:"items"`
}

// EmptyResult is what a failed search recovers to.
func EmptyResult() Result {
	return Result{TotalFound: 0, Items: []Book{}}
}

// TotalPages is the number of pages of pageSize items needed for TotalFound.
func (r Result) TotalPages(pageSize int) int {
	if pageSize <= 0 || r.TotalFound <= 0 {
		return 0
	}
	return (r.TotalFound + pageSize - 1) / pageSize
}

// Searcher runs one query against a bibliographic backend.
type Searcher interface {
	Search(ctx context.Context, params Params) (Result, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, params Params) (Result, error)

func (f SearcherFunc) Search(ctx context.Context, params Params) (Result, error) {
	return f(ctx, params)
}
