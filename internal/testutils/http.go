package testutils

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServer is an httptest server plus a client that keeps cookies between
// requests, so a login carries over like it does in a browser
type TestServer struct {
	*httptest.Server
	Client *http.Client
	t      *testing.T
}

func NewTestServer(t *testing.T, handler http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &TestServer{
		Server: server,
		Client: &http.Client{Jar: jar},
		t:      t,
	}
}

// GET follows redirects and returns the final response with its body
func (ts *TestServer) GET(path string) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(ts.t, err)
	return ts.Do(req)
}

// POSTForm submits form values and follows redirects
func (ts *TestServer) POSTForm(path string, form url.Values) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.Do(req)
}

func (ts *TestServer) Do(req *http.Request) (*http.Response, string) {
	resp, err := ts.Client.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp, string(body)
}

// WithoutRedirects returns a client sharing the cookie jar that stops at the
// first response
func (ts *TestServer) WithoutRedirects() *http.Client {
	return &http.Client{
		Jar: ts.Client.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
