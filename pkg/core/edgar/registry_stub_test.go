package edgar

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// stubRoute is a canned registry response.
type stubRoute struct {
	status int
	body   string
}

// registryStub serves canned documents by path and counts requests per path.
type registryStub struct {
	t      *testing.T
	server *httptest.Server

	mu     sync.Mutex
	routes map[string]stubRoute
	calls  map[string]int
	order  []string
	agents []string
}

func newRegistryStub(t *testing.T) *registryStub {
	t.Helper()
	s := &registryStub{
		t:      t,
		routes: make(map[string]stubRoute),
		calls:  make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

func (s *registryStub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	s.calls[key]++
	s.order = append(s.order, key)
	s.agents = append(s.agents, r.Header.Get("User-Agent"))
	route, ok := s.routes[key]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	status := route.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(route.body))
}

// handle registers body at path (path may carry a query string).
func (s *registryStub) handle(path, body string) {
	s.handleStatus(path, http.StatusOK, body)
}

func (s *registryStub) handleStatus(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = stubRoute{status: status, body: body}
}

func (s *registryStub) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *registryStub) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *registryStub) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *registryStub) url(path string) string {
	return s.server.URL + path
}

// gateway returns an unthrottled gateway talking to the stub.
func (s *registryStub) gateway() *Gateway {
	return NewGateway("edgar-export-test test@example.com", WithRateLimit(0))
}
