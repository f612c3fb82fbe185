package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/scrollfeed/pkg/domain"
)

// RSSParams configures paginated RSS/Atom source
type RSSParams struct {
	URL       string
	PageSize  int
	UserAgent string
	Timeout   time.Duration
}

// RSS serves a single RSS/Atom feed in pages of fixed size.
// The feed is downloaded on every fetch, page token is the decimal offset of the first item.
type RSS struct {
	RSSParams
	parser *gofeed.Parser
	client *http.Client
}

// NewRSS makes paginated feed source
func NewRSS(params RSSParams) *RSS {
	if params.PageSize <= 0 {
		params.PageSize = 10
	}
	if params.Timeout <= 0 {
		params.Timeout = 30 * time.Second
	}
	if params.UserAgent == "" {
		params.UserAgent = "Scrollfeed/1.0"
	}
	return &RSS{RSSParams: params, parser: gofeed.NewParser(), client: &http.Client{Timeout: params.Timeout}}
}

// Fetch downloads the feed and returns the page starting at token offset
func (r *RSS) Fetch(ctx context.Context, token domain.PageToken) (domain.Batch, error) {
	offset := 0
	if !token.IsZero() {
		v, err := strconv.Atoi(string(token))
		if err != nil || v < 0 {
			return domain.Batch{}, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("invalid page token %q", token)}
		}
		offset = v
	}

	feed, fetchErr := r.download(ctx)
	if fetchErr != nil {
		return domain.Batch{}, fetchErr
	}

	if offset > len(feed.Items) {
		offset = len(feed.Items)
	}
	end := min(offset+r.PageSize, len(feed.Items))

	batch := domain.Batch{Items: make([]domain.Item, 0, end-offset)}
	for _, fi := range feed.Items[offset:end] {
		batch.Items = append(batch.Items, rssItem(feed, fi))
	}
	if end < len(feed.Items) {
		batch.Next = domain.PageToken(strconv.Itoa(end))
	}
	return batch, nil
}

func (r *RSS) download(ctx context.Context) (*gofeed.Feed, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("create request: %w", err)}
	}
	setRequestHeaders(req, acceptFeed, r.UserAgent, "")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindStatus, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %q", resp.Status)}
	}

	feed, err := r.parser.Parse(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{Kind: KindTransport, Err: err}
		}
		return nil, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("parse feed: %w", err)}
	}
	return feed, nil
}

func rssItem(feed *gofeed.Feed, fi *gofeed.Item) domain.Item {
	item := domain.Item{
		ArticleID:   fi.GUID,
		Title:       fi.Title,
		Link:        fi.Link,
		Description: fi.Description,
		Content:     fi.Content,
		SourceName:  feed.Title,
		SourceID:    feed.Link,
		Categories:  fi.Categories,
		Language:    feed.Language,
	}
	if item.ArticleID == "" {
		item.ArticleID = fi.Link
	}
	if fi.Image != nil {
		item.ImageURL = fi.Image.URL
	}
	switch {
	case fi.PublishedParsed != nil:
		item.Published = *fi.PublishedParsed
	case fi.UpdatedParsed != nil:
		item.Published = *fi.UpdatedParsed
	}
	return item
}
