package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URL query keys for a search intent.
const (
	KeySearchText = "searchText"
	KeyPageSize   = "pageSize"
	KeyPage       = "page"
)

// DefaultPageSize applies when Config.DefaultPageSize is not positive.
const DefaultPageSize = 10

// Params is one search intent. It is a value type; changes produce a new one.
type Params struct {
	SearchText string `json:"searchText"`
	PageSize   int    `json:"pageSize"`
	Page       int    `json:"page"`
}

// Values encodes p as URL query parameters.
func (p Params) Values() url.Values {
	return url.Values{
		KeySearchText: {p.SearchText},
		KeyPageSize:   {strconv.Itoa(p.PageSize)},
		KeyPage:       {strconv.Itoa(p.Page)},
	}
}

// Searchable reports whether p may trigger a fetch.
func (p Params) Searchable() bool {
	return strings.TrimSpace(p.SearchText) != ""
}

func (p Params) String() string {
	return fmt.Sprintf("%q page=%d pageSize=%d", p.SearchText, p.Page, p.PageSize)
}

// DecodeParams reads a search intent from URL values. Missing or invalid
// parts take their value from fallback. ok is false when values carry no
// parameters at all.
func DecodeParams(values url.Values, fallback Params) (p Params, ok bool) {
	if len(values) == 0 {
		return Params{}, false
	}

	p = fallback
	if text := values.Get(KeySearchText); text != "" {
		p.SearchText = text
	}
	if n := positiveInt(values.Get(KeyPageSize)); n > 0 {
		p.PageSize = n
	}
	if n := positiveInt(values.Get(KeyPage)); n > 0 {
		p.Page = n
	}
	return p, true
}

func positiveInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
