package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Browser drives a headless Chromium instance for sources whose pages
// are rendered client-side. Search mode never uses it; only the
// chapter download path does.
type Browser struct {
	logger          *zap.Logger
	proxyURL        string
	ChromedpOptions []chromedp.ExecAllocatorOption
}

func NewBrowser(logger *zap.Logger, proxyURL string) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

		// Stealth options
		chromedp.Flag("accept-language", "en-US,en;q=0.9"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-extensions", ""),
	)
	if proxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(proxyURL))
	}

	return &Browser{
		logger:          logger,
		proxyURL:        proxyURL,
		ChromedpOptions: opts,
	}
}

// FetchHTML navigates to pageURL, waits for waitSelector to become
// visible and returns the rendered document. Each call runs in a fresh
// browser context.
func (b *Browser) FetchHTML(ctx context.Context, pageURL, waitSelector string) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.ChromedpOptions...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()
	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, 90*time.Second)
	defer timeoutCancel()

	if waitSelector == "" {
		waitSelector = "body"
	}

	b.logger.Info("Fetching page with browser",
		zap.String("url", pageURL),
		zap.String("wait_selector", waitSelector))

	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(waitSelector),
		chromedp.Evaluate(`
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});
		`, nil),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		b.logger.Error("Browser fetch failed",
			zap.String("url", pageURL),
			zap.Error(err))
		return "", fmt.Errorf("browser fetch %s: %w", pageURL, err)
	}

	return html, nil
}
