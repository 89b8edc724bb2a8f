// Package middleware holds the HTTP middleware shared by Verity modules and
// the ordered stack that composes them.
package middleware

import "net/http"

// System is an ordered middleware stack. The first middleware added is the
// outermost wrapper.
type System interface {
	Use(mw ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type mw struct {
	stack []func(http.Handler) http.Handler
}

// New creates an empty middleware System.
func New() System {
	return &mw{}
}

// Use appends middleware in order. Nil entries are skipped so optional
// middleware can opt out by returning nil.
func (m *mw) Use(fns ...func(http.Handler) http.Handler) {
	for _, fn := range fns {
		if fn != nil {
			m.stack = append(m.stack, fn)
		}
	}
}

func (m *mw) Apply(handler http.Handler) http.Handler {
	for i := len(m.stack) - 1; i >= 0; i-- {
		handler = m.stack[i](handler)
	}
	return handler
}

// MaxBody caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError. A non-positive limit disables the cap and returns nil.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
