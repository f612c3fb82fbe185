package domain

import "time"

// Item represents a single news article returned by a paginated source.
// The feed controller never inspects it, items are only appended and rendered.
type Item struct {
	ArticleID   string    `json:"article_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Published   time.Time `json:"pub_date"`
	ImageURL    string    `json:"image_url,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	SourceName  string    `json:"source_name,omitempty"`
	Categories  []string  `json:"category,omitempty"`
	Countries   []string  `json:"country,omitempty"`
	Language    string    `json:"language,omitempty"`
}

// TopCategories returns up to n leading categories for display
func (i Item) TopCategories(n int) []string {
	if len(i.Categories) <= n {
		return i.Categories
	}
	return i.Categories[:n]
}
