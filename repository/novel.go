package repository

import (
	"context"
	"time"
)

type NovelRepo interface {
	Upsert(ctx context.Context, doc *NovelDoc) error
	// GetByURL returns nil without an error when no novel is stored
	// under the url.
	GetByURL(ctx context.Context, url string) (*NovelDoc, error)
}

// NovelDoc records a novel that has shown up in search results, keyed
// by its canonical url.
type NovelDoc struct {
	Key       string    `bson:"key"`
	Title     string    `bson:"title"`
	URL       string    `bson:"url"`
	Sources   []string  `bson:"sources"`
	FirstSeen time.Time `bson:"first_seen"`
	LastSeen  time.Time `bson:"last_seen"`
}
