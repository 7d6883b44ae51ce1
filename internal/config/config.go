// Package config turns raw env-values into typed settings of the compositing pipeline
package config

import (
	"log"
	"strconv"
	"strings"
	"time"
)

// Getter - то, что нужно от wbf/config
type Getter interface {
	GetString(key string) string
}

const (
	SuggesterFallback = "fallback"
	SuggesterOpenAI   = "openai"
	SuggesterGemini   = "gemini"
)

type ArtistConfig struct {
	Suggester      string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	GeminiKey      string
	GeminiModel    string
	SuggestTimeout time.Duration

	FetchTimeout      time.Duration
	FetchMaxBytes     int64
	// разрешить загрузку с loopback/приватных адресов (локальный minio и т.п.)
	FetchAllowPrivate bool
	FontPath          string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

func LoadArtist(cfg Getter) ArtistConfig {
	res := ArtistConfig{
		Suggester:      strings.ToLower(strings.TrimSpace(cfg.GetString("SUGGESTER"))),
		OpenAIKey:      cfg.GetString("OPENAI_API_KEY"),
		OpenAIModel:    stringOr(cfg.GetString("OPENAI_MODEL"), "gpt-4o-mini"),
		OpenAIBaseURL:  cfg.GetString("OPENAI_BASE_URL"),
		GeminiKey:      cfg.GetString("GEMINI_API_KEY"),
		GeminiModel:    stringOr(cfg.GetString("GEMINI_MODEL"), "gemini-2.0-flash"),
		SuggestTimeout: durationOr("SUGGEST_TIMEOUT", cfg.GetString("SUGGEST_TIMEOUT"), 20*time.Second),
		FetchTimeout:   durationOr("FETCH_TIMEOUT", cfg.GetString("FETCH_TIMEOUT"), 15*time.Second),
		FetchMaxBytes:  int64Or("FETCH_MAX_BYTES", cfg.GetString("FETCH_MAX_BYTES"), 20<<20),
		FontPath:       cfg.GetString("FONT_PATH"),
		RedisAddr:      cfg.GetString("REDIS_ADDR"),
		RedisPassword:  cfg.GetString("REDIS_PASSWORD"),
		CacheTTL:       durationOr("PLACEMENT_CACHE_TTL", cfg.GetString("PLACEMENT_CACHE_TTL"), 24*time.Hour),
	}
	res.FetchAllowPrivate = boolOr("FETCH_ALLOW_PRIVATE", cfg.GetString("FETCH_ALLOW_PRIVATE"), false)

	switch res.Suggester {
	case SuggesterOpenAI, SuggesterGemini, SuggesterFallback:
	case "":
		res.Suggester = SuggesterFallback
	default:
		log.Printf("Unknown SUGGESTER %q. Using %q...", res.Suggester, SuggesterFallback)
		res.Suggester = SuggesterFallback
	}

	return res
}

func stringOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func durationOr(key, raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Incorrect %s value %q. Using default %v...", key, raw, def)
		return def
	}
	return d
}

func int64Or(key, raw string, def int64) int64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("Incorrect %s value %q. Using default %d...", key, raw, def)
		return def
	}
	return v
}

func boolOr(key, raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Incorrect %s value %q. Using default %t...", key, raw, def)
		return def
	}
	return v
}
