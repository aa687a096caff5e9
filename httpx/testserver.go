package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer is an httptest.Server with a Client aimed at it.
type TestServer struct{ *httptest.Server }

func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(handler)}
}

// NewEchoTestServer serves the routes reg adds to a bare Echo, with none of
// the Server middleware.
func NewEchoTestServer(reg RouteRegistrar) *TestServer {
	e := NewEcho()
	if reg != nil {
		reg(e)
	}
	return NewTestServer(e)
}

func (ts *TestServer) APIClient(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.URL)}, opts...)...)
}
