package domain

// PageToken is an opaque cursor returned by a source, empty value means "first page"
type PageToken string

// IsZero reports whether the token is absent
func (t PageToken) IsZero() bool {
	return t == ""
}

// Batch is the result of one fetch from a paginated source
type Batch struct {
	Items []Item
	Next  PageToken // empty when the source has no more pages
}

// Last reports whether the batch is the final one
func (b Batch) Last() bool {
	return b.Next.IsZero()
}
