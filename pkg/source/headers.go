package source

import (
	"net/http"
)

// accept headers per source type
const (
	acceptJSON = "application/json"
	acceptFeed = "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5"
)

// setRequestHeaders adds headers common for all source requests.
// Language is the configured filter, the same value is asked for in Accept-Language.
func setRequestHeaders(req *http.Request, accept, userAgent, language string) {
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	// pages must be fresh, a cached page may point to a stale next token
	req.Header.Set("Cache-Control", "no-cache")
	if language != "" && language != "en" {
		req.Header.Set("Accept-Language", language+",en;q=0.8")
		return
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
