// Package metrics provides Prometheus metrics for feed sources.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/umputun/scrollfeed/pkg/domain"
	"github.com/umputun/scrollfeed/pkg/feed"
	"github.com/umputun/scrollfeed/pkg/source"
)

var (
	// FetchTotal counts fetches by source and status
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scrollfeed",
			Name:      "fetch_total",
			Help:      "Total number of page fetches",
		},
		[]string{"source", "status"},
	)

	// FetchDuration measures fetch duration
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scrollfeed",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// BatchItems observes number of items per successful fetch
	BatchItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scrollfeed",
			Name:      "batch_items",
			Help:      "Distribution of items per fetched page",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"source"},
	)
)

// instrumented wraps a source and records every fetch
type instrumented struct {
	src  feed.Source
	name string
}

// Instrument wraps src so each fetch is counted and timed under the given source name
func Instrument(src feed.Source, name string) feed.Source {
	return &instrumented{src: src, name: name}
}

// Fetch delegates to the wrapped source
func (i *instrumented) Fetch(ctx context.Context, token domain.PageToken) (domain.Batch, error) {
	start := time.Now()
	batch, err := i.src.Fetch(ctx, token)
	FetchDuration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())
	if err != nil {
		FetchTotal.WithLabelValues(i.name, status(err)).Inc()
		return batch, err
	}
	FetchTotal.WithLabelValues(i.name, "success").Inc()
	BatchItems.WithLabelValues(i.name).Observe(float64(len(batch.Items)))
	return batch, nil
}

// status returns failure kind label for err
func status(err error) string {
	if kind, ok := source.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}
