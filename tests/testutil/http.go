package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trendstep/storefront/internal/interfaces/http/dto"
)

var baseURL = &url.URL{Scheme: "http", Host: "storefront.test", Path: "/"}

// Client drives an http.Handler like a browser: cookies set by one response
// are sent with the next request. Redirects are not followed.
type Client struct {
	t       *testing.T
	handler http.Handler
	jar     *cookiejar.Jar
}

// NewClient creates a client with an empty cookie jar
func NewClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{t: t, handler: handler, jar: jar}
}

// Cookies returns the cookies the client would send
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(baseURL)
}

// Do sends req and stores the response cookies
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.jar.Cookies(baseURL) {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	c.jar.SetCookies(baseURL, w.Result().Cookies())
	return w
}

// Get fetches a page
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// PostForm submits a form
func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// JSON sends body (when not nil) as JSON and asks for JSON back
func (c *Client) JSON(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err, "Failed to marshal request body")
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.Do(req)
}

// Decode parses the API envelope and, when out is not nil, its data field
func Decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), "body: %s", w.Body.String())
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}
