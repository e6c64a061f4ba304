package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"extract-catalog/internal/config"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "extract-catalog/1.0"

// HTTPFetcher fetches server-rendered pages without a browser.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client := resty.New().
		SetTimeout(cfg.ActionTimeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "text/html").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	slog.Info("fetching", "url", url)
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if res.IsError() {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status code: %d", res.StatusCode())}
	}

	doc, err := ParseDocument(url, res.String())
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return doc, nil
}
