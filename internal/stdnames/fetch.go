package stdnames

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRetrieval marks a table that could not be obtained from the remote
// host, either because the host is unreachable or the version does not
// exist. Without a table no rule can run, so callers treat this as fatal.
var ErrRetrieval = eris.New("stdnames: standard name table retrieval failed")

// DefaultBaseURL is where published table versions live.
const DefaultBaseURL = "https://cfconventions.org/Data/cf-standard-names"

// FetcherOptions configures the table fetcher.
type FetcherOptions struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// Fetcher retrieves standard-name tables with a per-version disk cache. A
// cache hit short-circuits network access entirely.
type Fetcher struct {
	cacheDir string
	opts     FetcherOptions
	client   *http.Client
	limiter  *rate.Limiter
}

// NewFetcher creates a Fetcher caching under cacheDir. The directory is
// created on first use.
func NewFetcher(cacheDir string, opts FetcherOptions) *Fetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "cfcheck/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Fetcher{
		cacheDir: cacheDir,
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(5, 5),
	}
}

// CachePath returns the deterministic cache file for a table version.
func (f *Fetcher) CachePath(version string) string {
	return filepath.Join(f.cacheDir, fmt.Sprintf("cf-standard-name-table-v%s.xml", version))
}

func (f *Fetcher) url(version string) string {
	return fmt.Sprintf("%s/%s/src/cf-standard-name-table.xml", f.opts.BaseURL, version)
}

// Fetch returns the parsed table for a version, downloading it only when
// the cache misses.
func (f *Fetcher) Fetch(ctx context.Context, version string) (*Table, error) {
	path := f.CachePath(version)
	if _, err := os.Stat(path); err == nil {
		zap.L().Debug("stdnames: cache hit",
			zap.String("version", version),
			zap.String("path", path),
		)
		return Load(path)
	}
	if err := f.Download(ctx, version, path); err != nil {
		return nil, err
	}
	return Load(path)
}

// Download fetches a table version to the destination path, creating the
// cache directory if absent. The file is written atomically so a failed
// download never leaves a truncated cache entry.
func (f *Fetcher) Download(ctx context.Context, version, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return eris.Wrap(err, "stdnames: create cache dir")
	}

	body, err := f.get(ctx, f.url(version))
	if err != nil {
		return err
	}
	defer body.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".cf-table-*")
	if err != nil {
		return eris.Wrap(err, "stdnames: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "stdnames: write table")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "stdnames: close temp file")
	}
	if err := os.Rename(tmp.Name(), destination); err != nil {
		return eris.Wrap(err, "stdnames: move table into cache")
	}

	zap.L().Info("stdnames: downloaded standard name table",
		zap.String("version", version),
		zap.String("path", destination),
	)
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := range f.opts.MaxRetries {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "stdnames: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "stdnames: create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("stdnames: request failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode == http.StatusNotFound:
			_ = resp.Body.Close()
			return nil, eris.Wrapf(ErrRetrieval, "no such table version at %s", rawURL)
		case resp.StatusCode >= 500:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
			f.backoff(ctx, attempt)
			continue
		default:
			_ = resp.Body.Close()
			return nil, eris.Wrapf(ErrRetrieval, "unexpected status %d from %s", resp.StatusCode, rawURL)
		}
	}
	return nil, eris.Wrapf(ErrRetrieval, "all retries exhausted: %v", lastErr)
}

func (f *Fetcher) backoff(ctx context.Context, attempt int) {
	base := 500 * time.Millisecond
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
