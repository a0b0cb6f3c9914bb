// Package httpsource serves archive bytes over HTTP range requests.
//
// A Source satisfies s4a.ByteSource, so a remote archive object (an S3
// object URL, a CDN path, any server honoring Range headers) can back an
// Archive exactly like a local file. Each ReadAt is one GET with an
// inclusive byte range; the Source keeps no state beyond the probed size.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Source implements random access reads via HTTP range requests.
type Source struct {
	url     string
	client  *http.Client
	headers http.Header
	size    int64
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests. Timeouts and retries
// belong on this client; the archive reader adds neither.
func WithClient(client *http.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers http.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(http.Header)
		}
		s.headers.Set(key, value)
	}
}

// NewSource creates a Source backed by HTTP range requests.
// It probes the remote to determine the content size and to verify that the
// server honors Range headers at all.
func NewSource(url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}

	size, err := s.probeSize()
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", url, err)
	}
	s.size = size
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// ReadAt reads len(p) bytes at the given offset with one range request.
// It implements io.ReaderAt: if fewer bytes are available than requested,
// it returns the count read along with io.EOF.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	expected := len(p)
	if end >= s.size {
		end = s.size - 1
		expected = int(end - off + 1)
	}

	resp, err := s.rangeRequest(off, end)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) // drain for connection reuse
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// ok
	case http.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case http.StatusOK:
		return 0, errors.New("range requests not supported")
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// probeSize determines the remote content size. A HEAD request is tried
// first; a bytes=0-0 range probe then confirms range support and is the
// authority when the two disagree about existence of a size at all.
func (s *Source) probeSize() (int64, error) {
	headSize := int64(-1)
	if req, err := s.newRequest(http.MethodHead); err == nil {
		if resp, err := s.client.Do(req); err == nil {
			headSize = resp.ContentLength
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	rangeSize, err := s.rangeProbe()
	if err != nil {
		return 0, err
	}
	if headSize > 0 && headSize != rangeSize {
		return 0, fmt.Errorf("content size mismatch: head=%d range=%d", headSize, rangeSize)
	}
	return rangeSize, nil
}

// rangeProbe verifies range support and extracts the size from Content-Range.
func (s *Source) rangeProbe() (int64, error) {
	resp, err := s.rangeRequest(0, 0)
	if err != nil {
		return 0, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) // drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusPartialContent {
		if resp.StatusCode == http.StatusOK {
			return 0, errors.New("range requests not supported")
		}
		return 0, fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return 0, errors.New("range probe missing Content-Range")
	}
	return parseContentRange(crange)
}

// rangeRequest performs a GET for the inclusive byte range [off, end].
func (s *Source) rangeRequest(off, end int64) (*http.Response, error) {
	req, err := s.newRequest(http.MethodGet)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	return s.client.Do(req)
}

// newRequest creates a request with the configured headers applied.
func (s *Source) newRequest(method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(context.Background(), method, s.url, http.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		// Transport-level compression would corrupt byte offsets.
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

// parseContentRange extracts the total size from a Content-Range header.
// It expects "bytes start-end/size" and rejects the "*" size form.
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "bytes ") {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	parts := strings.SplitN(strings.TrimPrefix(value, "bytes "), "/", 2)
	if len(parts) != 2 || parts[1] == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
