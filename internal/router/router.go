// Package router implements a minimal HTTP router with path-parameter
// matching. Static routes are matched before templated ones; templated routes
// match in declaration order. Handler errors and panics are funneled through a
// single error writer so every failure produces a well-formed response.
package router

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Params holds path parameters captured from a templated route.
type Params map[string]string

// HandlerFunc is a route handler. A returned error is passed to the router's
// error writer; a nil return means the handler wrote the response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorWriter maps a handler error to an HTTP response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// ErrNoRoute is passed to the error writer when no route matches.
var ErrNoRoute = fmt.Errorf("no matching route")

type paramsKey struct{}

// Param returns the named path parameter captured for this request, or "".
func Param(r *http.Request, name string) string {
	if p, ok := r.Context().Value(paramsKey{}).(Params); ok {
		return p[name]
	}
	return ""
}

type patternRoute struct {
	method string
	re     *regexp.Regexp
	names  []string
	h      HandlerFunc
}

// Router dispatches requests to registered handlers.
type Router struct {
	static   map[string]HandlerFunc
	patterns []patternRoute
	errw     ErrorWriter
}

// New creates a Router that reports failures through errw.
func New(errw ErrorWriter) *Router {
	return &Router{
		static: map[string]HandlerFunc{},
		errw:   errw,
	}
}

// Handle registers a handler for the given method and path pattern. Segments
// of the form :name capture any non-slash value.
func (rt *Router) Handle(method, pattern string, h HandlerFunc) {
	if !strings.Contains(pattern, ":") {
		rt.static[method+" "+pattern] = h
		return
	}
	re, names := compilePattern(pattern)
	rt.patterns = append(rt.patterns, patternRoute{method: method, re: re, names: names, h: h})
}

// ServeHTTP matches the request path against registered routes and invokes
// the first match. Unmatched requests are reported as ErrNoRoute.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if h, ok := rt.static[r.Method+" "+path]; ok {
		rt.invoke(w, r, h)
		return
	}

	for _, pr := range rt.patterns {
		if pr.method != r.Method {
			continue
		}
		m := pr.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		params := Params{}
		for i, name := range pr.names {
			params[name] = m[i+1]
		}
		ctx := context.WithValue(r.Context(), paramsKey{}, params)
		rt.invoke(w, r.WithContext(ctx), pr.h)
		return
	}

	rt.errw(w, r, ErrNoRoute)
}

// invoke runs the handler, converting panics into errors so a buggy handler
// cannot take the process down or leak a stack trace to the client.
func (rt *Router) invoke(w http.ResponseWriter, r *http.Request, h HandlerFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Handler panic")
			rt.errw(w, r, fmt.Errorf("handler panic: %v", rec))
		}
	}()
	if err := h(w, r); err != nil {
		rt.errw(w, r, err)
	}
}

// compilePattern converts "/api/recipes/:id" into a full-match regexp with
// one capture group per :name segment.
func compilePattern(pattern string) (*regexp.Regexp, []string) {
	var names []string
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			names = append(names, seg[1:])
			segments[i] = "([^/]+)"
		} else {
			segments[i] = regexp.QuoteMeta(seg)
		}
	}
	return regexp.MustCompile("^" + strings.Join(segments, "/") + "$"), names
}
