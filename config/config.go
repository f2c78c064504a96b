package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort      int
	SourcesPath  string
	ProxyURL     string
	BotToken     string
	MongoURI     string
	DownloadPath string
	BoltPath     string
}

func Load() (*Config, error) {
	appPort, err := strconv.Atoi(getEnv("APP_PORT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:      appPort,
		SourcesPath:  getEnv("SOURCES_PATH"),
		ProxyURL:     getEnvDefault("PROXY_URL", ""),
		BotToken:     getEnvDefault("BOT_TOKEN", ""),
		MongoURI:     getEnvDefault("MONGO_URI", ""),
		DownloadPath: getEnvDefault("DOWNLOAD_PATH", "downloads"),
		BoltPath:     getEnvDefault("BOLT_PATH", "data/novara.db"),
	}, nil
}

type sourcesFile struct {
	Sources []string `yaml:"sources"`
}

// LoadSources reads the YAML list of source links handed to the search
// engine.
func LoadSources(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sources: %w", err)
	}

	var parsed sourcesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse sources: %w", err)
	}
	if len(parsed.Sources) == 0 {
		return nil, fmt.Errorf("config: %s lists no sources", path)
	}
	return parsed.Sources, nil
}

func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
