package integration

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// roundTripperFunc 允许用闭包充当 http.RoundTripper，替代真实上游。
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// stubUpstream 模拟固定域名的上游源站，记录回源次数。
type stubUpstream struct {
	mu      sync.Mutex
	calls   int
	status  int
	body    string
	lastURL string
}

func newStubUpstream(status int, body string) *stubUpstream {
	return &stubUpstream{status: status, body: body}
}

// client 返回一个 Transport 指向 stub 的 http.Client，重定向按代理约定禁用。
func (s *stubUpstream) client() *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			s.mu.Lock()
			s.calls++
			s.lastURL = req.URL.String()
			status := s.status
			body := s.body
			s.mu.Unlock()
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
				Request:    req,
			}, nil
		}),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *stubUpstream) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubUpstream) lastRequestedURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastURL
}

func (s *stubUpstream) set(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}
