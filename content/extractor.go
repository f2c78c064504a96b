package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// minChapterWords is the point below which a readability extraction is
// considered to have missed the chapter body.
const minChapterWords = 30

// Chapter is the cleaned-up body of one chapter page.
type Chapter struct {
	Title string
	HTML  string
	Text  string
}

// Extractor pulls the chapter body out of a full page, readability
// first and trafilatura as the fallback when readability comes back
// near-empty.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(pageHTML, pageURL string) (*Chapter, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract: parse url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(pageHTML), parsedURL)
	if err == nil && wordCount(article.TextContent) >= minChapterWords {
		return &Chapter{
			Title: article.Title,
			HTML:  article.Content,
			Text:  strings.TrimSpace(article.TextContent),
		}, nil
	}
	if err != nil {
		e.logger.Warn("readability extraction failed, falling back to trafilatura",
			zap.String("url", pageURL),
			zap.Error(err))
	}

	result, err := trafilatura.Extract(strings.NewReader(pageHTML), trafilatura.Options{
		OriginalURL: parsedURL,
	})
	if err != nil {
		return nil, fmt.Errorf("extract: trafilatura: %w", err)
	}

	body, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, fmt.Errorf("extract: render: %w", err)
	}

	return &Chapter{
		Title: result.Metadata.Title,
		HTML:  body,
		Text:  strings.TrimSpace(result.ContentText),
	}, nil
}

func renderNode(node *html.Node) (string, error) {
	if node == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
