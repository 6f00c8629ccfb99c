package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const mimeJSON = "application/json"

type jsonSurfaceKey struct{}

// preferredMediaType returns the highest-quality media range of an Accept
// header. Ties go to the earlier entry; an empty header yields "".
func preferredMediaType(accept string) string {
	best, bestQ := "", -1.0
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		if q > bestQ {
			best, bestQ = mt, q
		}
	}
	if bestQ <= 0 {
		return ""
	}
	return best
}

// wantsJSON reports whether the request is served by the JSON surface.
// Routes under /api are always JSON; legacy routes follow the Accept header.
func wantsJSON(r *http.Request) bool {
	if v, ok := r.Context().Value(jsonSurfaceKey{}).(bool); ok {
		return v
	}
	return preferredMediaType(r.Header.Get("Accept")) == mimeJSON
}

// jsonSurface marks every request below it as a JSON request.
func jsonSurface(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), jsonSurfaceKey{}, true)))
	})
}

// Negotiate dispatches to api or form depending on the caller's preferred
// response type.
func Negotiate(api, form http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept")
		if wantsJSON(r) {
			api(w, r)
			return
		}
		form(w, r)
	}
}
