package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/scrollfeed/pkg/domain"
)

const rssContent = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<link>https://example.com</link>
		<description>Test feed description</description>
		<item>
			<title>Article 1</title>
			<link>https://example.com/article1</link>
			<description>Article 1 description</description>
			<guid>article1</guid>
			<category>tech</category>
			<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
		</item>
		<item>
			<title>Article 2</title>
			<link>https://example.com/article2</link>
			<guid>article2</guid>
			<pubDate>Tue, 03 Jan 2006 15:04:05 -0700</pubDate>
		</item>
		<item>
			<title>Article 3</title>
			<link>https://example.com/article3</link>
		</item>
	</channel>
</rss>`

func TestRSS_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/rss+xml")
		assert.Equal(t, "Scrollfeed/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssContent))
	}))
	defer ts.Close()

	src := NewRSS(RSSParams{URL: ts.URL, PageSize: 2, Timeout: 5 * time.Second})

	t.Run("first page", func(t *testing.T) {
		batch, err := src.Fetch(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, batch.Items, 2)
		assert.Equal(t, domain.PageToken("2"), batch.Next)

		assert.Equal(t, "article1", batch.Items[0].ArticleID)
		assert.Equal(t, "Article 1", batch.Items[0].Title)
		assert.Equal(t, "Test Feed", batch.Items[0].SourceName)
		assert.Equal(t, []string{"tech"}, batch.Items[0].Categories)
		assert.False(t, batch.Items[0].Published.IsZero())
		assert.Equal(t, "article2", batch.Items[1].ArticleID)
	})

	t.Run("last page", func(t *testing.T) {
		batch, err := src.Fetch(context.Background(), "2")
		require.NoError(t, err)
		require.Len(t, batch.Items, 1)
		assert.True(t, batch.Last())
		assert.Equal(t, "https://example.com/article3", batch.Items[0].ArticleID, "id falls back to link")
	})

	t.Run("offset past the end", func(t *testing.T) {
		batch, err := src.Fetch(context.Background(), "10")
		require.NoError(t, err)
		assert.Empty(t, batch.Items)
		assert.True(t, batch.Last())
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := src.Fetch(context.Background(), "abc")
		require.ErrorIs(t, err, ErrFetchFailed)
		kind, _ := KindOf(err)
		assert.Equal(t, KindMalformed, kind)
	})
}

func TestRSS_FetchErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := NewRSS(RSSParams{URL: ts.URL}).Fetch(context.Background(), "")
		require.ErrorIs(t, err, ErrFetchFailed)
		kind, _ := KindOf(err)
		assert.Equal(t, KindStatus, kind)
	})

	t.Run("not a feed", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("just some text"))
		}))
		defer ts.Close()

		_, err := NewRSS(RSSParams{URL: ts.URL}).Fetch(context.Background(), "")
		require.ErrorIs(t, err, ErrFetchFailed)
		kind, _ := KindOf(err)
		assert.Equal(t, KindMalformed, kind)
	})
	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		ts.Close()

		_, err := NewRSS(RSSParams{URL: ts.URL, Timeout: time.Second}).Fetch(context.Background(), "")
		require.ErrorIs(t, err, ErrFetchFailed)
		kind, _ := KindOf(err)
		assert.Equal(t, KindTransport, kind)
	})
}

func TestSetRequestHeaders(t *testing.T) {
	tests := []struct {
		language, want string
	}{
		{language: "", want: "en-US,en;q=0.9"},
		{language: "en", want: "en-US,en;q=0.9"},
		{language: "de", want: "de,en;q=0.8"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		setRequestHeaders(req, acceptJSON, "agent", tt.language)
		assert.Equal(t, tt.want, req.Header.Get("Accept-Language"), tt.language)
		assert.Equal(t, acceptJSON, req.Header.Get("Accept"))
		assert.Equal(t, "agent", req.Header.Get("User-Agent"))
	}
}
