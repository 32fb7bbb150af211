package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

type cannedResponse struct {
	status int
	body   any
}

// RemoteMock is a LifeOS API stand-in for device sync scenarios. It answers
// every request to a route with the canned response of that route and
// records the decoded request bodies.
type RemoteMock struct {
	mu        sync.Mutex
	server    *httptest.Server
	responses map[string]cannedResponse
	requests  map[string][]map[string]any
	headers   map[string][]http.Header
}

func NewRemoteMock() *RemoteMock {
	return &RemoteMock{
		responses: map[string]cannedResponse{},
		requests:  map[string][]map[string]any{},
		headers:   map[string][]http.Header{},
	}
}

func (m *RemoteMock) Start() {
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
}

func (m *RemoteMock) Close() {
	if m.server != nil {
		m.server.Close()
	}
}

func (m *RemoteMock) GetUrl() string {
	return m.server.URL
}

// SetResponse fixes the answer of method+path. A nil body answers {}.
func (m *RemoteMock) SetResponse(method, path string, status int, body any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method+path] = cannedResponse{status: status, body: body}
}

// GetRequestBodies returns the bodies received on method+path, in order.
func (m *RemoteMock) GetRequestBodies(method, path string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.requests[method+path]...)
}

// GetRequestHeaders returns the headers received on method+path, in order.
func (m *RemoteMock) GetRequestHeaders(method, path string) []http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]http.Header(nil), m.headers[method+path]...)
}

func (m *RemoteMock) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + r.URL.Path

	raw, _ := io.ReadAll(r.Body)
	var request map[string]any
	_ = json.Unmarshal(raw, &request)
	if request == nil {
		request = map[string]any{}
	}

	m.mu.Lock()
	m.requests[key] = append(m.requests[key], request)
	m.headers[key] = append(m.headers[key], r.Header.Clone())
	resp, ok := m.responses[key]
	m.mu.Unlock()

	if !ok {
		resp = cannedResponse{status: http.StatusOK}
	}
	if resp.body == nil {
		resp.body = map[string]any{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_ = json.NewEncoder(w).Encode(resp.body)
}
