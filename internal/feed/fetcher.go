package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"
)

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindTimeout
	KindHTTP
	KindEmptyBody
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindEmptyBody:
		return "empty_body"
	default:
		return "network"
	}
}

// FetchError is the terminal error of one fetch. Status is set only
// for KindHTTP (and KindEmptyBody, where the request itself succeeded).
type FetchError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("fetch failed (%s %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is a successful fetch.
type Result struct {
	Body   []byte
	Status int
}

type FetcherConfig struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	UserAgent   string
}

// Fetcher performs one bounded-retry HTTP GET per feed URL. Retries
// apply only to transient transport errors, never to HTTP status
// failures or timeouts, with linear backoff (attempt x Backoff).
type Fetcher struct {
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	userAgent   string
	logger      *slog.Logger
}

func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		res, err := f.doRequest(ctx, feedURL)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !isTransient(err) || attempt == f.maxAttempts {
			return nil, err
		}

		wait := time.Duration(attempt) * f.backoff
		f.logger.Warn("transient fetch error, retrying",
			"url", feedURL,
			"attempt", attempt,
			"backoff", wait,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, &FetchError{Kind: KindTimeout, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}

	return nil, lastErr
}

func (f *Fetcher) doRequest(ctx context.Context, feedURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &FetchError{Kind: KindTimeout, Err: err}
		}
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Kind:   KindHTTP,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &FetchError{Kind: KindTimeout, Err: err}
		}
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &FetchError{
			Kind:   KindEmptyBody,
			Status: resp.StatusCode,
			Err:    errors.New("empty response body"),
		}
	}

	return &Result{Body: body, Status: resp.StatusCode}, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}

// isTransient reports whether the failure looks like transport-protocol
// instability worth another attempt. The predicate inspects the error,
// never the HTTP status.
func isTransient(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindNetwork {
		return false
	}
	return errors.Is(fe.Err, io.EOF) ||
		errors.Is(fe.Err, io.ErrUnexpectedEOF) ||
		errors.Is(fe.Err, syscall.ECONNRESET) ||
		errors.Is(fe.Err, syscall.ECONNABORTED) ||
		errors.Is(fe.Err, syscall.EPIPE)
}
