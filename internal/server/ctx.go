package server

import (
	"context"
	"fmt"

	"github.com/woozymasta/quakemap/assets"
	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/mapview"
	"github.com/woozymasta/quakemap/internal/metrics"
	"github.com/woozymasta/quakemap/internal/scene"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/rs/zerolog/log"
)

// FeedLoader fetches both feeds for one render pass.
type FeedLoader interface {
	Load(ctx context.Context) (*feed.Feeds, error)
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Loader    FeedLoader
	View      *mapview.View
	Mapper    style.Mapper
	IndexHTML []byte
	Favicon   []byte
}

// NewServerContext builds the map view once and wires the feed loader.
func NewServerContext(cfg *config.Config, token string, loader FeedLoader) (*ServerContext, error) {
	view, err := mapview.Build(cfg, token)
	if err != nil {
		return nil, fmt.Errorf("build map view: %w", err)
	}

	log.Info().
		Str("earthquakes", cfg.Feeds.Earthquakes).
		Str("plates", cfg.Feeds.Plates).
		Dur("timeout", cfg.Feeds.Timeout).
		Int("max_retries", cfg.Feeds.MaxRetries).
		Str("default_base", view.DefaultBase().Name).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Loader:    loader,
		View:      view,
		Mapper:    style.NewMapper(cfg.Popup),
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
	}, nil
}

// render runs one fetch, map and build pass. Nothing is kept afterwards.
func (s *ServerContext) render(ctx context.Context) (*scene.Scene, error) {
	feeds, err := s.Loader.Load(ctx)
	if err != nil {
		metrics.RenderPassesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RenderPassesTotal.WithLabelValues("ok").Inc()
	return scene.Build(feeds, s.Mapper), nil
}
