package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page is the list response envelope: a total row count, absolute next and
// previous page links, and the window of results.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// FromRequest reads limit/offset query parameters, applying defaults and caps.
// Malformed or negative values fall back rather than erroring.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: NormalizeLimit(limit), Offset: offset}
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NewPage assembles the envelope for one window of results. Results is never
// nil so the JSON always carries an array.
func NewPage[T any](r *http.Request, params Params, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Count:    count,
		Next:     nextLink(r, params, count),
		Previous: previousLink(r, params),
		Results:  results,
	}
}

func nextLink(r *http.Request, params Params, count int64) *string {
	next := params.Offset + params.Limit
	if int64(next) >= count {
		return nil
	}
	return pageLink(r, params.Limit, next)
}

func previousLink(r *http.Request, params Params) *string {
	if params.Offset <= 0 {
		return nil
	}
	prev := params.Offset - params.Limit
	if prev < 0 {
		prev = 0
	}
	return pageLink(r, params.Limit, prev)
}

func pageLink(r *http.Request, limit, offset int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()

	link := absoluteURL(r, &u)
	return &link
}

func absoluteURL(r *http.Request, u *url.URL) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, u.RequestURI())
}
