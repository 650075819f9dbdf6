package chi

import (
	"net/http"
	"strconv"
)

// linkBuilder renders absolute page URLs for pagination envelopes. With an
// empty base the request's own scheme and host are used.
type linkBuilder struct {
	base string
}

// pageURL returns the URL of the current request pointed at page number.
// The page parameter is dropped for the first page; every other parameter
// is kept.
func (l linkBuilder) pageURL(r *http.Request, number int) string {
	params := r.URL.Query()
	if number <= 1 {
		params.Del("page")
	} else {
		params.Set("page", strconv.Itoa(number))
	}

	u := l.origin(r) + r.URL.EscapedPath()
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (l linkBuilder) origin(r *http.Request) string {
	if l.base != "" {
		return l.base
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd == "http" || fwd == "https" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
