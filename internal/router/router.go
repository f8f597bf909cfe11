// Package router layers prefixes and middleware chains over http.ServeMux.
package router

import (
	"net/http"
	"slices"
)

type Middleware func(http.Handler) http.Handler

// Router registers method-qualified patterns on a shared ServeMux. Sub-routers
// from Route and Group share the mux and extend the prefix and chain.
type Router struct {
	mux    *http.ServeMux
	prefix string
	chain  []Middleware
}

// New returns a root router whose middleware wraps every route.
func New(middleware ...Middleware) *Router {
	return &Router{mux: http.NewServeMux(), chain: middleware}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) Get(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, pattern, h, mw...)
}

func (r *Router) Post(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, pattern, h, mw...)
}

func (r *Router) Put(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, pattern, h, mw...)
}

func (r *Router) Delete(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, pattern, h, mw...)
}

// Handle registers "METHOD prefix+pattern". Route-level middleware runs after
// the router's chain.
func (r *Router) Handle(method, pattern string, h http.Handler, mw ...Middleware) {
	r.mux.Handle(method+" "+r.prefix+pattern, r.build(h, mw))
}

// Fallback answers requests that match no route.
func (r *Router) Fallback(h http.Handler) {
	r.mux.Handle("/", r.build(h, nil))
}

// Group is Route without a prefix.
func (r *Router) Group(mw ...Middleware) *Router {
	return r.Route("", mw...)
}

func (r *Router) Route(prefix string, mw ...Middleware) *Router {
	return &Router{
		mux:    r.mux,
		prefix: r.prefix + prefix,
		chain:  slices.Concat(r.chain, mw),
	}
}

// build wraps h so the first middleware in the chain is outermost.
func (r *Router) build(h http.Handler, extra []Middleware) http.Handler {
	all := slices.Concat(r.chain, extra)
	for i := len(all) - 1; i >= 0; i-- {
		h = all[i](h)
	}
	return h
}
