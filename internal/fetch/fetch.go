// Package fetch downloads remote resume documents.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spigell/ats-auditor/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "spigell/ats-auditor"
	// DefaultMaxBytes caps a downloaded document at 20 MiB.
	DefaultMaxBytes = 20 << 20

	contentEncoding = "gzip, deflate"
)

// ErrTooLarge is returned when the body exceeds the configured limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Error describes a failed download.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the HTTP fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// HTTPFetcher is a Fetcher over net/http.
type HTTPFetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxBytes   int64

	logger *zap.Logger
}

// New builds an HTTPFetcher, filling unset options with defaults.
func New(opts Options, log *zap.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	return &HTTPFetcher{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		UserAgent:  opts.UserAgent,
		MaxBytes:   opts.MaxBytes,
		logger:     logger.OrNop(log),
	}
}

// Fetch makes a GET request and returns the decoded body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	f.logger.Debug("make request", zap.String("url", parsed.Redacted()))

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	f.logger.Debug("got response",
		zap.String("url", parsed.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Int64("content_length", resp.ContentLength),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("bad status: %s", resp.Status)}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: "decode gzip body", Cause: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, f.MaxBytes+1))
	if err != nil {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: "read body", Cause: err}
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("more than %d bytes", f.MaxBytes), Cause: ErrTooLarge}
	}

	return data, nil
}
