// Package fetch drives paginated retrieval of the remote note collections.
//
// The Transport interface isolates HTTP mechanics; the Fetcher layers
// credential gating, inter-request delay, bounded retry, and item-cap
// truncation on top, yielding a restartable sequence of pages.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hollis-dev/notemirror/iox"
	"github.com/hollis-dev/notemirror/types"
)

// Request is one remote call. Query and Header may be nil.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a completed remote call. Non-2xx statuses are returned here,
// not as errors; interpretation belongs to the caller.
type Response struct {
	Status int
	Body   []byte
}

// Transport sends one request. Implementations must return *TransportError
// for network-level failures so the fetcher can classify retries.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Downloader fetches raw bytes from a (typically pre-signed) URL. Used for
// attachment and file downloads, which bypass the paginated API.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// DefaultTimeout is the per-request timeout for API calls.
const DefaultTimeout = 30 * time.Second

// DownloadTimeout is the per-request timeout for attachment downloads,
// which can be large audio files.
const DownloadTimeout = 60 * time.Second

// defaultHeaders are sent with every API request. The service fronts a web
// app and rejects requests that do not look like it.
var defaultHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9,en-US;q=0.8,en;q=0.7",
	"Content-Type":    "application/json",
	"Origin":          "https://www.biji.com",
	"Referer":         "https://www.biji.com/",
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/145.0.0.0 Safari/537.36",
}

// HTTPTransport implements Transport and Downloader over net/http.
type HTTPTransport struct {
	client   *http.Client
	download *http.Client
}

// NewHTTPTransport creates a transport with separate timeouts for API calls
// and downloads.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client:   &http.Client{Timeout: DefaultTimeout},
		download: &http.Client{Timeout: DownloadTimeout},
	}
}

// Send issues the request with the service's default headers, overridden by
// any request-specific headers.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	if len(req.Query) > 0 {
		target = target + "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	defer iox.DiscardClose(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// Download fetches raw bytes from a URL. Returns *TransportError on network
// failure and *HTTPError on a non-2xx status.
func (t *HTTPTransport) Download(ctx context.Context, rawURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := t.download.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, URL: rawURL}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	return data, nil
}

// credHeaders builds the authenticated header set for a request.
func credHeaders(cred *types.Credential) http.Header {
	h := http.Header{}
	h.Set("Authorization", cred.Token)
	if cred.CSRFToken != "" {
		h.Set("Xi-Csrf-Token", cred.CSRFToken)
	}
	for k, v := range cred.ExtraHeaders {
		h.Set(k, v)
	}
	return h
}

// Verify HTTPTransport implements both capabilities.
var (
	_ Transport  = (*HTTPTransport)(nil)
	_ Downloader = (*HTTPTransport)(nil)
)
