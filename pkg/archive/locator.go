// Package archive locates and downloads the plain-text edition of a book from
// a file-listing archive such as Project Gutenberg's /files/ tree.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/litgraph/backend/pkg/logger"

	"golang.org/x/net/html/charset"
)

const DefaultBaseURL = "https://www.gutenberg.org/files"

// ErrNotFound is returned for every failure to produce a book text: listing
// unreachable, no plain-text candidates, or the download itself failing.
var ErrNotFound = errors.New("book not found or unable to fetch")

// Locator finds the largest plain-text file listed for a book and downloads it.
//
// A Locator should be created using NewLocator.
type Locator struct {
	baseURL    string
	httpClient *http.Client
}

// NewLocatorParams configures a Locator.
//
// BaseURL is the archive root without a trailing slash; the listing for a book
// is expected at BaseURL/{id}/. Timeout bounds each request when no HTTPClient
// is supplied.
type NewLocatorParams struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewLocator(params NewLocatorParams) *Locator {
	base := strings.TrimRight(params.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	client := params.HTTPClient
	if client == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Locator{
		baseURL:    base,
		httpClient: client,
	}
}

// IndexURL returns the listing page URL for a book.
func (l *Locator) IndexURL(id int64) string {
	return l.baseURL + "/" + strconv.FormatInt(id, 10) + "/"
}

// Fetch returns the full text of the largest plain-text file listed for id.
// All failures wrap ErrNotFound.
func (l *Locator) Fetch(ctx context.Context, id int64) (string, error) {
	candidates, err := l.Candidates(ctx, id)
	if err != nil {
		return "", err
	}

	best, ok := Largest(candidates)
	if !ok {
		logger.Debug("No plain-text files listed", "book_id", id)
		return "", fmt.Errorf("%w: no plain-text files listed", ErrNotFound)
	}

	fileURL, err := l.resolve(id, best.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	logger.Debug("Downloading book text", "book_id", id, "file", best.Filename, "size", best.Size)

	resp, err := l.get(ctx, fileURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrNotFound, best.Filename, err)
	}
	text, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrNotFound, best.Filename, err)
	}

	return string(text), nil
}

// Candidates fetches the listing page for id and returns its plain-text files
// in page order.
func (l *Locator) Candidates(ctx context.Context, id int64) ([]Candidate, error) {
	resp, err := l.get(ctx, l.IndexURL(id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	candidates, err := ParseListing(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing: %v", ErrNotFound, err)
	}
	return candidates, nil
}

func (l *Locator) resolve(id int64, filename string) (string, error) {
	base, err := url.Parse(l.IndexURL(id))
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(filename)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (l *Locator) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrNotFound, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		logger.Debug("Archive request failed", "url", target, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		logger.Debug("Archive returned non-success status", "url", target, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s returned %d", ErrNotFound, target, resp.StatusCode)
	}
	return resp, nil
}
