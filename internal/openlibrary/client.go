// Package openlibrary queries the OpenLibrary search API.
package openlibrary

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gocolly/colly/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/iosifache/booksearch/internal/search"
)

const (
	DefaultEndpoint = "https://openlibrary.org/search.json"
	DefaultTimeout  = 15 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is a search.Searcher backed by the OpenLibrary search endpoint.
type Client struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

// NewClient returns a client with defaults for empty fields.
func NewClient(endpoint string, timeout time.Duration, userAgent string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{Endpoint: endpoint, Timeout: timeout, UserAgent: userAgent}
}

type searchResponse struct {
	NumFound int `json:"num_found"`
	Docs     []struct {
		Title           string   `json:"title"`
		AuthorName      []string `json:"author_name"`
		CoverEditionKey string   `json:"cover_edition_key"`
	} `json:"docs"`
}

// queryText collapses whitespace runs and lower-cases the search text.
func queryText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// QueryToken is the encoded q value sent on the wire: "Clean  Code"
// becomes "clean+code".
func QueryToken(text string) string {
	return url.QueryEscape(queryText(text))
}

// RequestURL builds the GET URL for params.
func (c *Client) RequestURL(params search.Params) (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "parse endpoint %q", c.Endpoint)
	}

	q := u.Query()
	q.Set("q", queryText(params.SearchText))
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("limit", strconv.Itoa(params.PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Search runs one query. Transport failures, non-2xx statuses and
// malformed bodies are returned as *TransportError.
func (c *Client) Search(ctx context.Context, params search.Params) (search.Result, error) {
	reqURL, err := c.RequestURL(params)
	if err != nil {
		return search.Result{}, &TransportError{Op: "build request", Err: err}
	}

	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	}
	if c.UserAgent != "" {
		opts = append(opts, colly.UserAgent(c.UserAgent))
	}
	collector := colly.NewCollector(opts...)
	collector.SetRequestTimeout(c.Timeout)

	var (
		body   []byte
		status int
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := collector.Visit(reqURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return search.Result{}, &TransportError{Op: "GET " + c.Endpoint, Status: status, Err: err}
	}
	if status < 200 || status > 299 {
		return search.Result{}, &TransportError{Op: "GET " + c.Endpoint, Status: status, Err: errors.Errorf("unexpected status %d", status)}
	}

	return decode(body)
}

func decode(body []byte) (search.Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return search.Result{}, &TransportError{Op: "decode response", Err: errors.Wrap(err, "malformed search response")}
	}
	if resp.NumFound < 0 {
		return search.Result{}, &TransportError{Op: "decode response", Err: errors.Errorf("negative num_found %d", resp.NumFound)}
	}

	result := search.Result{
		TotalFound: resp.NumFound,
		Items:      make([]search.Book, 0, len(resp.Docs)),
	}
	for _, doc := range resp.Docs {
		result.Items = append(result.Items, search.Book{
			Title:   doc.Title,
			Authors: doc.AuthorName,
			CoverID: doc.CoverEditionKey,
		})
	}
	return result, nil
}
