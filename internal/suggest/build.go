package suggest

import (
	"context"
	"fmt"

	"github.com/UnendingLoop/CakeArtist/internal/config"
	"github.com/UnendingLoop/CakeArtist/internal/mwlogger"
)

// New builds the suggester selected by cfg.Suggester.
// A remote suggester without credentials degrades to Fallback, the returned error explains why.
func New(ctx context.Context, cfg config.ArtistConfig, loader ImageLoader) (PlacementSuggester, error) {
	var (
		client VisionClient
		err    error
	)

	switch cfg.Suggester {
	case config.SuggesterOpenAI:
		client, err = NewOpenAIVision(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case config.SuggesterGemini:
		client, err = NewGeminiVision(ctx, cfg.GeminiKey, cfg.GeminiModel, loader)
	default:
		return Fallback{}, nil
	}
	if err != nil {
		return Fallback{}, fmt.Errorf("%s suggester disabled: %w", cfg.Suggester, err)
	}

	var src Source = NewRemote(client, cfg.SuggestTimeout)

	if cfg.RedisAddr != "" {
		store := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err := store.Ping(ctx); err != nil {
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable yet, placement cache will retry per request")
		}
		src = NewCached(src, store, cfg.CacheTTL)
	}

	return WithFallback(src), nil
}
