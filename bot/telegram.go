package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"novara/binder"
	"novara/content"
	"novara/repository"
	"novara/search"
	"novara/sources"
)

// maxDownloadChapters caps a single /download so one huge novel cannot
// hold the bot for hours.
const maxDownloadChapters = 300

const helpText = `Commands:
/search <query> - search all sources for a novel
/download <novel url> [epub|md] - fetch a novel and send it (epub by default)`

// Bot wires the search engine and the packaging pipeline to telegram
// commands.
type Bot struct {
	tg       *bot.Bot
	engine   *search.Engine
	registry *sources.Registry
	repo     repository.NovelRepo
	binders  map[string]binder.Binder
	logger   *zap.Logger
	links    []string
}

func New(
	token string,
	engine *search.Engine,
	registry *sources.Registry,
	repo repository.NovelRepo,
	binders map[string]binder.Binder,
	links []string,
	logger *zap.Logger,
) (*Bot, error) {
	b := &Bot{
		engine:   engine,
		registry: registry,
		repo:     repo,
		binders:  binders,
		logger:   logger,
		links:    links,
	}

	tg, err := bot.New(token, bot.WithDefaultHandler(b.handleDefault))
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/search", bot.MatchTypePrefix, b.handleSearch)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/download", bot.MatchTypePrefix, b.handleDownload)

	b.tg = tg
	return b, nil
}

// Start begins long polling and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("telegram bot polling started")
	b.tg.Start(ctx)
}

func (b *Bot) handleDefault(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, update.Message.Chat.ID, helpText)
}

func (b *Bot) handleSearch(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	query := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/search"))
	if query == "" {
		b.reply(ctx, chatID, "Usage: /search <query>")
		return
	}

	status, err := b.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "Searching... 0%",
	})
	if err != nil {
		b.logger.Error("failed to send status message", zap.Error(err))
		return
	}

	session := b.engine.Search(ctx, query, b.links)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-session.Done():
			b.finishSearch(ctx, chatID, status.ID, session)
			return
		case <-ticker.C:
			b.editStatus(ctx, chatID, status.ID,
				fmt.Sprintf("Searching... %d%%", session.Progress()))
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) finishSearch(ctx context.Context, chatID int64, messageID int, session *search.Session) {
	results := session.Results()
	if len(results) == 0 {
		b.editStatus(ctx, chatID, messageID, "No results for: "+session.Query)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d novels for %q:\n", len(results), session.Query)
	for i, result := range results {
		fmt.Fprintf(&sb, "\n%d. %s (%d sources)", i+1, result.Title, len(result.Novels))
		for _, novel := range result.Novels {
			fmt.Fprintf(&sb, "\n    %s", novel.URL)
		}
	}
	b.editStatus(ctx, chatID, messageID, sb.String())

	b.record(ctx, results)
}

// record upserts every result so repeat searches can be traced back.
func (b *Bot) record(ctx context.Context, results []search.CombinedResult) {
	if b.repo == nil {
		return
	}
	for _, result := range results {
		for _, novel := range result.Novels {
			doc := &repository.NovelDoc{
				Key:     result.ID,
				Title:   novel.Title,
				URL:     novel.URL,
				Sources: []string{novel.Source},
			}
			if err := b.repo.Upsert(ctx, doc); err != nil {
				b.logger.Warn("failed to record novel",
					zap.String("url", novel.URL),
					zap.Error(err))
			}
		}
	}
}

func (b *Bot) handleDownload(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	novelURL, format := splitDownloadArgs(update.Message.Text)
	if novelURL == "" {
		b.reply(ctx, chatID, "Usage: /download <novel url> [epub|md]")
		return
	}
	bind, ok := b.binders[format]
	if !ok {
		b.reply(ctx, chatID, "Unknown format: "+format)
		return
	}

	crawler := b.registry.ResolveFull(novelURL)
	fetcher, ok := crawler.(sources.NovelFetcher)
	if !ok {
		b.reply(ctx, chatID, "No downloadable source for that url")
		return
	}

	if note := b.seenBefore(ctx, novelURL); note != "" {
		b.reply(ctx, chatID, note)
	}
	b.reply(ctx, chatID, "Downloading, this may take a while...")

	path, err := b.downloadAndBind(ctx, fetcher, bind, novelURL)
	if err != nil {
		b.logger.Error("download failed",
			zap.String("url", novelURL),
			zap.Error(err))
		b.reply(ctx, chatID, "Download failed: "+err.Error())
		return
	}

	file, err := os.Open(path)
	if err != nil {
		b.logger.Error("failed to open bound file", zap.Error(err))
		b.reply(ctx, chatID, "Download failed")
		return
	}
	defer file.Close()

	_, err = b.tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filepath.Base(path),
			Data:     file,
		},
	})
	if err != nil {
		b.logger.Error("failed to send document", zap.Error(err))
	}
}

// splitDownloadArgs pulls the novel url and optional output format out
// of a /download message. The format defaults to epub.
func splitDownloadArgs(text string) (novelURL, format string) {
	fields := strings.Fields(strings.TrimPrefix(text, "/download"))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], "epub"
	default:
		return fields[0], fields[1]
	}
}

// seenBefore tells the user when a url is already in the library, so a
// repeat download is a deliberate choice rather than a surprise.
func (b *Bot) seenBefore(ctx context.Context, novelURL string) string {
	if b.repo == nil {
		return ""
	}
	doc, err := b.repo.GetByURL(ctx, novelURL)
	if err != nil {
		b.logger.Warn("novel lookup failed",
			zap.String("url", novelURL),
			zap.Error(err))
		return ""
	}
	if doc == nil {
		return ""
	}
	return fmt.Sprintf("%q is already in the library (first seen %s), downloading again...",
		doc.Title, doc.FirstSeen.Format("2006-01-02"))
}

func (b *Bot) downloadAndBind(ctx context.Context, fetcher sources.NovelFetcher, bind binder.Binder, novelURL string) (string, error) {
	novel, err := fetcher.FetchNovel(ctx, novelURL)
	if err != nil {
		return "", err
	}

	refs := novel.Chapters
	if len(refs) > maxDownloadChapters {
		refs = refs[:maxDownloadChapters]
	}

	var chapters []*content.Chapter
	for _, ref := range refs {
		chapter, err := fetcher.FetchChapter(ctx, ref)
		if err != nil {
			// A single bad chapter should not sink the whole book.
			b.logger.Warn("chapter fetch failed",
				zap.String("chapter", ref.URL),
				zap.Error(err))
			continue
		}
		chapters = append(chapters, chapter)
	}

	return bind.Bind(novel, chapters)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, err := b.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}
}

func (b *Bot) editStatus(ctx context.Context, chatID int64, messageID int, text string) {
	_, err := b.tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		b.logger.Warn("failed to edit status message", zap.Error(err))
	}
}
