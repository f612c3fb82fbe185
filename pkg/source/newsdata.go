package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/scrollfeed/pkg/domain"
)

// DefaultNewsdataEndpoint is the public newsdata.io latest news endpoint
const DefaultNewsdataEndpoint = "https://newsdata.io/api/1/news"

// newsdata reports publication dates in UTC without zone
const newsdataTimeLayout = "2006-01-02 15:04:05"

const maxResponseSize = 10 * 1024 * 1024

// NewsdataParams configures newsdata.io client
type NewsdataParams struct {
	Endpoint  string
	APIKey    string
	Language  string
	Query     string
	Category  string
	Country   string
	UserAgent string
	Timeout   time.Duration
	Retries   int // total attempts per fetch, 1 disables retries
}

// Newsdata fetches pages of articles from newsdata.io compatible API
type Newsdata struct {
	NewsdataParams
	client *http.Client
}

// newsdataResponse is the wire format of newsdata.io news endpoint
type newsdataResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Results      []newsdataArticle `json:"results"`
	NextPage     *string           `json:"nextPage"`
}

type newsdataArticle struct {
	ArticleID   string   `json:"article_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	PubDate     string   `json:"pubDate"`
	ImageURL    *string  `json:"image_url"`
	SourceID    string   `json:"source_id"`
	SourceName  string   `json:"source_name"`
	Category    []string `json:"category"`
	Country     []string `json:"country"`
	Language    string   `json:"language"`
}

// NewNewsdata makes newsdata client with defaults for missing params
func NewNewsdata(params NewsdataParams) *Newsdata {
	if params.Endpoint == "" {
		params.Endpoint = DefaultNewsdataEndpoint
	}
	if params.Language == "" {
		params.Language = "en"
	}
	if params.Timeout <= 0 {
		params.Timeout = 30 * time.Second
	}
	if params.Retries < 1 {
		params.Retries = 1
	}
	if params.UserAgent == "" {
		params.UserAgent = "Scrollfeed/1.0"
	}
	return &Newsdata{NewsdataParams: params, client: &http.Client{Timeout: params.Timeout}}
}

// Fetch requests a single page, token is passed through as "page" query parameter
func (n *Newsdata) Fetch(ctx context.Context, token domain.PageToken) (domain.Batch, error) {
	reqURL, err := n.pageURL(token)
	if err != nil {
		return domain.Batch{}, &FetchError{Kind: KindMalformed, Err: err}
	}

	var batch domain.Batch
	retrier := repeater.NewBackoff(n.Retries, 500*time.Millisecond, repeater.WithMaxDelay(5*time.Second))
	err = retrier.Do(ctx, func() error {
		b, fetchErr := n.fetchPage(ctx, reqURL)
		if fetchErr != nil {
			lgr.Printf("[DEBUG] newsdata fetch page %q: %v", token, fetchErr)
			return classify(fetchErr)
		}
		batch = b
		return nil
	}, errNoRetry)
	if err != nil {
		err = unwrapCritical(err)
		if _, ok := KindOf(err); !ok {
			// context canceled between attempts
			err = &FetchError{Kind: KindTransport, Err: err}
		}
		return domain.Batch{}, err
	}
	return batch, nil
}

func (n *Newsdata) pageURL(token domain.PageToken) (string, error) {
	u, err := url.Parse(n.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", n.Endpoint, err)
	}
	params := url.Values{}
	params.Set("apikey", n.APIKey)
	params.Set("language", n.Language)
	if n.Query != "" {
		params.Set("q", n.Query)
	}
	if n.Category != "" {
		params.Set("category", n.Category)
	}
	if n.Country != "" {
		params.Set("country", n.Country)
	}
	if !token.IsZero() {
		params.Set("page", string(token))
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (n *Newsdata) fetchPage(ctx context.Context, reqURL string) (domain.Batch, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return domain.Batch{}, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("create request: %w", err)}
	}
	setRequestHeaders(req, acceptJSON, n.UserAgent, n.Language)

	resp, err := n.client.Do(req)
	if err != nil {
		return domain.Batch{}, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return domain.Batch{}, &FetchError{Kind: KindTransport, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Batch{}, &FetchError{Kind: KindStatus, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %q", resp.Status)}
	}

	var nr newsdataResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return domain.Batch{}, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}
	if nr.Status != "success" {
		return domain.Batch{}, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("response status %q", nr.Status)}
	}

	batch := domain.Batch{Items: make([]domain.Item, 0, len(nr.Results))}
	for _, a := range nr.Results {
		batch.Items = append(batch.Items, a.toItem())
	}
	if nr.NextPage != nil {
		batch.Next = domain.PageToken(*nr.NextPage)
	}
	return batch, nil
}

func (a newsdataArticle) toItem() domain.Item {
	item := domain.Item{
		ArticleID:   a.ArticleID,
		Title:       a.Title,
		Link:        a.Link,
		Description: deref(a.Description),
		Content:     deref(a.Content),
		ImageURL:    deref(a.ImageURL),
		SourceID:    a.SourceID,
		SourceName:  a.SourceName,
		Categories:  a.Category,
		Countries:   a.Country,
		Language:    a.Language,
	}
	if ts, err := time.Parse(newsdataTimeLayout, a.PubDate); err == nil {
		item.Published = ts
	} else if ts, err := time.Parse(time.RFC3339, a.PubDate); err == nil {
		item.Published = ts
	}
	if item.SourceName == "" {
		item.SourceName = a.SourceID
	}
	return item
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
