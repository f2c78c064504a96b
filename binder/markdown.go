package binder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"novara/content"
	"novara/sources"
)

// MarkdownBinder emits the novel as one markdown file, for readers who
// want plain text instead of an epub.
type MarkdownBinder struct {
	logger    *zap.Logger
	outputDir string
}

func NewMarkdownBinder(logger *zap.Logger, outputDir string) *MarkdownBinder {
	return &MarkdownBinder{logger: logger, outputDir: outputDir}
}

func (b *MarkdownBinder) Bind(novel *sources.Novel, chapters []*content.Chapter) (string, error) {
	if novel == nil || novel.Title == "" {
		return "", fmt.Errorf("markdown: novel has no title")
	}
	if len(chapters) == 0 {
		return "", fmt.Errorf("markdown: no chapters to bind")
	}
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return "", fmt.Errorf("markdown: create output dir: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# " + novel.Title + "\n\n")
	if novel.Author != "" {
		sb.WriteString("by " + novel.Author + "\n\n")
	}

	for i, chapter := range chapters {
		body, err := htmltomarkdown.ConvertString(chapter.HTML)
		if err != nil {
			return "", fmt.Errorf("markdown: convert chapter %d: %w", i+1, err)
		}
		sb.WriteString("## " + chapter.Title + "\n\n")
		sb.WriteString(strings.TrimSpace(body))
		sb.WriteString("\n\n")
	}

	path := filepath.Join(b.outputDir, slug.Make(novel.Title)+".md")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("markdown: write %s: %w", path, err)
	}

	b.logger.Info("markdown bound",
		zap.String("novel", novel.Title),
		zap.Int("chapters", len(chapters)),
		zap.String("path", path))
	return path, nil
}
