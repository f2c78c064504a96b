package sources

import (
	"context"

	"novara/content"
)

// ChapterRef points at one chapter of a novel before its body has been
// fetched.
type ChapterRef struct {
	Title string
	URL   string
}

// Novel is the metadata and chapter listing of one novel on one
// source.
type Novel struct {
	Title    string
	Author   string
	URL      string
	Chapters []ChapterRef
}

// NovelFetcher is the optional download capability of a source.
// Crawlers that implement it can feed the packaging pipeline.
type NovelFetcher interface {
	FetchNovel(ctx context.Context, novelURL string) (*Novel, error)
	FetchChapter(ctx context.Context, ref ChapterRef) (*content.Chapter, error)
}
