package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// corsHeaders is the precomputed header set for one allowed origin.
type corsHeaders map[string]string

// newCORSHeaders allows origin to call the planning API. An empty origin
// allows any.
func newCORSHeaders(origin string) corsHeaders {
	if origin == "" {
		origin = "*"
	}
	return corsHeaders{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Methods": strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "),
		"Access-Control-Allow-Headers": "Content-Type, Authorization, Accept, Origin, Last-Event-ID",
		"Access-Control-Max-Age":       strconv.Itoa(24 * 60 * 60),
	}
}

// middleware sets the headers on every API response.
func (h corsHeaders) middleware(ctx huma.Context, next func(huma.Context)) {
	for k, v := range h {
		ctx.SetHeader(k, v)
	}
	if ctx.Method() == http.MethodOptions {
		ctx.SetStatus(http.StatusNoContent)
		return
	}
	next(ctx)
}

// preflight answers OPTIONS for every path. Huma routes by method, so
// preflights never reach the middleware.
func (h corsHeaders) preflight(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		for k, v := range h {
			w.Header().Set(k, v)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
