package binder

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/bmaupin/go-epub"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"novara/content"
	"novara/sources"
)

// EpubBinder packages downloaded chapters into a single .epub file
// under the configured output directory.
type EpubBinder struct {
	logger    *zap.Logger
	outputDir string
}

func NewEpubBinder(logger *zap.Logger, outputDir string) *EpubBinder {
	return &EpubBinder{logger: logger, outputDir: outputDir}
}

// Bind writes the epub and returns its path. The filename is the slug
// of the novel title.
func (b *EpubBinder) Bind(novel *sources.Novel, chapters []*content.Chapter) (string, error) {
	if novel == nil || novel.Title == "" {
		return "", fmt.Errorf("epub: novel has no title")
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("epub: no chapters to bind")
	}
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", fmt.Errorf("epub: create output dir: %w", err)
	}

	book := epub.NewEpub(novel.Title)
	if novel.Author != "" {
		book.SetAuthor(novel.Author)
	}

	for i, chapter := range chapters {
		// Titles come straight off scraped pages and may carry markup
		// characters that would break the section XHTML.
		body := fmt.Sprintf("<h3>%s</h3>%s", html.EscapeString(chapter.Title), chapter.HTML)
		if _, err := book.AddSection(body, chapter.Title, "", ""); err != nil {
			return "", fmt.Errorf("epub: add chapter %d: %w", i+1, err)
		}
	}

	path := filepath.Join(b.outputDir, slug.Make(novel.Title)+".epub")
	if err := book.Write(path); err != nil {
		return "", fmt.Errorf("epub: write %s: %w", path, err)
	}

	b.logger.Info("epub bound",
		zap.String("novel", novel.Title),
		zap.Int("chapters", len(chapters)),
		zap.String("path", path))
	return path, nil
}
