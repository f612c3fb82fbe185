// Package feed implements incremental loading of a paginated news feed.
// Controller accumulates items page by page and guards against overlapping fetches,
// Tail binds a single visibility observer to the last loaded item.
package feed

import (
	"context"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/scrollfeed/pkg/domain"
)

//go:generate moq -out mocks/source.go -pkg mocks -skip-ensure -fmt goimports . Source

// DefaultErrorMessage is shown to the user when a batch can't be loaded
const DefaultErrorMessage = "Failed to load news. Please try again later."

// Source returns one batch of items for the given page token, empty token requests the first page
type Source interface {
	Fetch(ctx context.Context, token domain.PageToken) (domain.Batch, error)
}

// Phase of the feed loading state machine
type Phase int

// feed phases, error is a flag orthogonal to the phase
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseExhausted
)

// String returns phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is a snapshot of the feed
type State struct {
	Items     []domain.Item
	Cursor    domain.PageToken
	Loading   bool
	Exhausted bool
	LastError string
}

// ItemsFrom returns items of the snapshot starting at index from, nil if there are none
func (s State) ItemsFrom(from int) []domain.Item {
	if from < 0 {
		from = 0
	}
	if from >= len(s.Items) {
		return nil
	}
	return s.Items[from:]
}

// TailIndex returns index of the item to observe for visibility.
// Nothing is observed while loading, once exhausted or when there are no items.
func (s State) TailIndex() (int, bool) {
	if s.Loading || s.Exhausted || len(s.Items) == 0 {
		return -1, false
	}
	return len(s.Items) - 1, true
}

// Phase returns state machine phase of the snapshot
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Exhausted:
		return PhaseExhausted
	default:
		return PhaseIdle
	}
}

// Controller owns feed state and loads the next batch on demand
type Controller struct {
	src    Source
	errMsg string

	mu        sync.Mutex
	items     []domain.Item
	cursor    domain.PageToken
	loading   bool
	exhausted bool
	lastError string
	started   bool
}

// Option customizes controller
type Option func(c *Controller)

// WithErrorMessage sets user-facing message reported on failed fetch
func WithErrorMessage(msg string) Option {
	return func(c *Controller) {
		if msg != "" {
			c.errMsg = msg
		}
	}
}

// New makes controller for the given source. Call Start to perform the initial load.
func New(src Source, opts ...Option) *Controller {
	c := &Controller{src: src, errMsg: DefaultErrorMessage}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the initial load once, repeated calls do nothing
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	c.LoadNextBatch(ctx)
}

// LoadNextBatch fetches the page at the current cursor and appends it.
// Returns immediately without any change if a fetch is in flight or the feed is exhausted.
// On failure the cursor stays put, so the next call requests the same page again.
func (c *Controller) LoadNextBatch(ctx context.Context) {
	c.mu.Lock()
	if c.loading || c.exhausted {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.lastError = ""
	cursor := c.cursor
	c.mu.Unlock()

	batch, err := c.src.Fetch(ctx, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		lgr.Printf("[WARN] failed to load batch, cursor %q: %v", cursor, err)
		c.lastError = c.errMsg
		return
	}
	c.items = append(c.items, batch.Items...)
	c.cursor = batch.Next
	c.exhausted = batch.Last()
	lgr.Printf("[DEBUG] loaded %d items, total %d, next %q, exhausted %v", len(batch.Items), len(c.items), c.cursor, c.exhausted)
}

// OnVisibilityTrigger is called when the last rendered item becomes visible
func (c *Controller) OnVisibilityTrigger(ctx context.Context) {
	c.LoadNextBatch(ctx)
}

// Retry repeats the last failed load, same guards as LoadNextBatch apply
func (c *Controller) Retry(ctx context.Context) {
	c.LoadNextBatch(ctx)
}

// State returns a snapshot of the feed. Items slice is shared but never modified in place.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Items:     c.items[:len(c.items):len(c.items)],
		Cursor:    c.cursor,
		Loading:   c.loading,
		Exhausted: c.exhausted,
		LastError: c.lastError,
	}
}
