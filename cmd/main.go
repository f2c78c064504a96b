package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"novara/api"
	"novara/binder"
	"novara/bot"
	"novara/browser"
	"novara/config"
	"novara/content"
	"novara/pkg/mongodb"
	"novara/repository"
	"novara/search"
	"novara/sources"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	links, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		log.Fatalf("Failed to load sources: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// HTTP
	// =========
	httpClient, err := newHTTPClient(cfg.ProxyURL)
	if err != nil {
		log.Fatalf("failed to create http client: %v", err)
	}

	// =========
	// Mongo (optional)
	// =========
	var novelRepo repository.NovelRepo
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		novelRepo = mongodb.NewNovelCollection(client.Database("novara"))
	}

	// =========
	// Bolt storage
	// =========
	boltStorage := &sources.BoltStorage{DBPath: cfg.BoltPath}
	if err := boltStorage.Init(); err != nil {
		log.Fatalf("failed to init bolt storage: %v", err)
	}
	defer boltStorage.Close()

	// =========
	// Chromedp
	// =========
	headlessBrowser := browser.NewBrowser(logger, cfg.ProxyURL)

	// =========
	// Source registry
	// =========
	registry := sources.NewRegistry(sources.Options{
		Client:    httpClient,
		Browser:   headlessBrowser,
		Extractor: content.NewExtractor(logger),
		Storage:   boltStorage,
		Logger:    logger,
		UserAgent: "Novara/1.0",
	})

	// =========
	// Search engine
	// =========
	engine := search.NewEngine(registry, logger, search.DefaultConfig())

	// =========
	// Telegram bot (optional)
	// =========
	if cfg.BotToken != "" {
		binders := map[string]binder.Binder{
			"epub": binder.NewEpubBinder(logger, cfg.DownloadPath),
			"md":   binder.NewMarkdownBinder(logger, cfg.DownloadPath),
		}
		tgBot, err := bot.New(cfg.BotToken, engine, registry, novelRepo, binders, links, logger)
		if err != nil {
			log.Fatalf("failed to create telegram bot: %v", err)
		}
		go tgBot.Start(context.Background())
	}

	// =========
	// API server
	// =========
	server := api.NewServer(engine, links, logger, cfg.AppPort)
	log.Fatal(server.Start())
}

func newHTTPClient(proxyURL string) (*http.Client, error) {
	transport := &http.Transport{
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: 60 * time.Second,
	}

	switch {
	case proxyURL == "":
	case strings.HasPrefix(proxyURL, "socks5://"):
		addr := strings.TrimPrefix(proxyURL, "socks5://")
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	default:
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   2 * time.Minute,
	}, nil
}
