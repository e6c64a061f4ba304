package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a rendered page ready to be queried.
type Document struct {
	URL string
	*goquery.Document
}

// Fetcher returns the rendered document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

// FetchError means the page could not be retrieved or rendered.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFoundError means the marker or the list following it is absent.
type NotFoundError struct {
	Marker string
	What   string // "marker" or "list"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found for marker %q", e.What, e.Marker)
}

// ParseDocument parses raw HTML into a Document.
func ParseDocument(url, html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Document{URL: url, Document: doc}, nil
}
