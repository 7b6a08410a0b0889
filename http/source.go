// Package http provides random access to remote containers via HTTP range
// requests, for use with beamfile.NewFromReaderAt.
package http //nolint:revive // intentional naming for domain clarity

import (
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Source implements random access reads via HTTP range requests.
// It satisfies io.ReaderAt and reports the remote content size.
type Source struct {
	url      string
	client   *nethttp.Client
	headers  nethttp.Header
	size     int64
	etag     string
	sourceID string
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
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
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithDigest records the expected content digest as the source identity.
// The digest is not verified against range reads; it only names the content.
func WithDigest(d digest.Digest) Option {
	return func(s *Source) {
		s.sourceID = d.String()
	}
}

// NewSource creates a Source backed by HTTP range requests. It probes the
// remote with a one-byte range request to learn the content size and to
// confirm the server honors ranges.
func NewSource(url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:    url,
		client: nethttp.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	if err := s.probe(); err != nil {
		return nil, err
	}
	if s.sourceID == "" {
		if s.etag != "" {
			s.sourceID = "etag:" + s.etag
		} else {
			s.sourceID = s.url
		}
	}
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// SourceID returns a stable identifier for the remote content: the digest
// when configured, otherwise the ETag, otherwise the URL.
func (s *Source) SourceID() string {
	return s.sourceID
}

// ReadAt reads len(p) bytes at the given offset using a range request.
// It implements io.ReaderAt: fewer bytes than requested come back with io.EOF.
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
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		// ok
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusOK:
		return 0, errors.New("range requests not supported")
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// probe issues a one-byte range request to learn size and ETag.
func (s *Source) probe() error {
	resp, err := s.rangeRequest(0, 0)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	s.etag = resp.Header.Get("ETag")

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		size, err := parseTotalSize(resp.Header.Get("Content-Range"))
		if err != nil {
			return err
		}
		s.size = size
		return nil
	case nethttp.StatusOK:
		// Server ignored the range header; it cannot back random access.
		return errors.New("remote does not support range requests")
	default:
		return fmt.Errorf("probe failed: %s", resp.Status)
	}
}

func (s *Source) rangeRequest(start, end int64) (*nethttp.Response, error) {
	req, err := nethttp.NewRequest(nethttp.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	return s.client.Do(req)
}

// parseTotalSize extracts the total length from a Content-Range header of the
// form "bytes start-end/total".
func parseTotalSize(contentRange string) (int64, error) {
	_, total, ok := strings.Cut(contentRange, "/")
	if !ok {
		return 0, fmt.Errorf("malformed Content-Range %q", contentRange)
	}
	if total == "*" {
		return 0, fmt.Errorf("Content-Range %q does not report a total size", contentRange)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q: %w", contentRange, err)
	}
	if size < 0 {
		return 0, fmt.Errorf("malformed Content-Range %q: negative size", contentRange)
	}
	return size, nil
}
