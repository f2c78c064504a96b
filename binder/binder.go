package binder

import (
	"novara/content"
	"novara/sources"
)

// Binder turns a fetched novel into a single file on disk and returns
// its path.
type Binder interface {
	Bind(novel *sources.Novel, chapters []*content.Chapter) (string, error)
}

var (
	_ Binder = (*EpubBinder)(nil)
	_ Binder = (*MarkdownBinder)(nil)
)
