package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/verity/pkg/middleware"
)

// Module mounts an inner router under a single-level prefix such as "/api"
// and wraps it with its own middleware stack. The stack is composed once, on
// the first request; Use after that point panics.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	compose sync.Once
	handler http.Handler
	sealed  bool
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the inner router wrapped with the module's middleware stack.
func (m *Module) Handler() http.Handler {
	m.compose.Do(func() {
		m.handler = m.middleware.Apply(m.router)
		m.sealed = true
	})
	return m.handler
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the module prefix from the request path, escaped form
// included, and dispatches to the wrapped router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	path := extractPath(req.URL.Path, m.prefix)
	request := cloneRequest(req, m.prefix, path)
	m.Handler().ServeHTTP(w, request)
}

// Use adds middleware to the module's stack. A nil middleware is ignored.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	if m.sealed {
		panic(fmt.Sprintf("module %s: middleware added after serving started", m.prefix))
	}
	m.middleware.Use(mw)
}

func cloneRequest(req *http.Request, prefix, path string) *http.Request {
	request := new(http.Request)
	*request = *req
	request.URL = new(url.URL)
	*request.URL = *req.URL
	request.URL.Path = path
	request.URL.RawPath = ""
	if raw := req.URL.RawPath; raw != "" && strings.HasPrefix(raw, prefix) {
		request.URL.RawPath = extractPath(raw, prefix)
	}
	return request
}

func extractPath(fullPath, prefix string) string {
	path := fullPath[len(prefix):]
	if path == "" {
		return "/"
	}
	return path
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
