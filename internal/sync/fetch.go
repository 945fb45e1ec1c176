package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxFeedBytes bounds the feed body read so a misbehaving host cannot
// exhaust memory.
const maxFeedBytes = 10 << 20

// FetchError indicates the feed could not be downloaded: network failure,
// timeout, or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching feed %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidateFeedURL rejects anything that is not an absolute HTTPS URL. The
// check runs at connection configuration time and again before every fetch,
// so no plain-HTTP request is ever issued.
func ValidateFeedURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("feed URL must use https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL missing host")
	}
	return nil
}

// Fetcher downloads iCal feeds over HTTPS with a bounded timeout.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a fetcher from the engine config.
func NewFetcher(cfg Config) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch downloads the feed body. The URL is validated before any network
// call; transport errors and non-2xx responses come back as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if err := ValidateFeedURL(feedURL); err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("Accept", "text/calendar, text/plain, */*")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", &FetchError{URL: feedURL, Err: err}
	}

	return string(body), nil
}
