package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebguevara/instagram-scraping/internal/aggregate"
	"github.com/sebguevara/instagram-scraping/internal/apify"
	"github.com/sebguevara/instagram-scraping/internal/classifier"
	"github.com/sebguevara/instagram-scraping/internal/config"
	"github.com/sebguevara/instagram-scraping/internal/db"
	"github.com/sebguevara/instagram-scraping/internal/facebook"
	"github.com/sebguevara/instagram-scraping/internal/instagram"
	"github.com/sebguevara/instagram-scraping/internal/logging"
)

// runtime wires config, logger, pool and the two platform services for a
// command invocation.
type runtime struct {
	cfg       *config.Config
	logger    zerolog.Logger
	pool      *db.Pool
	instagram *instagram.Service
	facebook  *facebook.Service
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sources, err := apify.NewClient(apify.Options{
		Token:   cfg.ApifyToken,
		BaseURL: cfg.ApifyBaseURL,
		Timeout: cfg.ApifyTimeout,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize apify client: %w", err)
	}

	labels, err := classifier.New(classifier.Options{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize classifier: %w", err)
	}

	repairer := aggregate.NewRepairer(pool, logger)

	igService := instagram.NewService(instagram.ServiceConfig{
		Store:              pool,
		Posts:              db.NewPostStore(pool),
		Comments:           db.NewCommentStore(pool),
		Sources:            sources,
		Labels:             labels,
		Repairer:           repairer,
		Logger:             logger,
		CommentConcurrency: int64(cfg.CommentConcurrency),
		TopicConcurrency:   int64(cfg.TopicConcurrency),
	})

	fbService := facebook.NewService(facebook.ServiceConfig{
		Store:              pool,
		Comments:           db.NewFacebookCommentStore(pool),
		Sources:            sources,
		Labels:             labels,
		Logger:             logger,
		CommentConcurrency: int64(cfg.CommentConcurrency),
	})

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		instagram: igService,
		facebook:  fbService,
	}, nil
}

func (r *runtime) close() {
	if r != nil && r.pool != nil {
		if err := r.pool.Close(); err != nil {
			r.logger.Error().Err(err).Msg("closing database pool failed")
		}
	}
}
