package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/metrics"
	"github.com/woozymasta/quakemap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger        `group:"Logger options"`
	Feeds  config.FeedOverrides `group:"Feed options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr        string `short:"a" long:"addr"         env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port        int    `short:"p" long:"port"         env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	MapboxToken string `short:"t" long:"mapbox-token" env:"MAPBOX_TOKEN"   description:"Map tile access token"`
}

func main() {
	// Values from the dotenv file must be in the environment before flags are parsed.
	loadEnvFile()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, found, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if !found {
		log.Warn().Str("config", opts.ConfigFile).Msg("Configuration file not found, using defaults")
	}
	if err := opts.Feeds.Apply(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid feed options")
	}

	loader := feed.NewLoader(feed.NewClient(), cfg.Feeds)
	srvCtx, err := server.NewServerContext(cfg, opts.MapboxToken, loader)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/view", srvCtx.HandleView)
	mux.HandleFunc("GET /api/scene", srvCtx.HandleScene)
	mux.HandleFunc("GET /api/preview.webp", srvCtx.HandlePreview)
	mux.HandleFunc("GET /healthz", srvCtx.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /favicon.ico", srvCtx.HandleFavicon)
	mux.HandleFunc("GET /favicon.svg", srvCtx.HandleFavicon)
	mux.HandleFunc("GET /", srvCtx.HandleIndex)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("default_base", cfg.View.DefaultBase).
		Int("base_layers", len(cfg.View.BaseLayers)).
		Msg("Web server started")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// loadEnvFile reads ENV_FILE (or .env) without overriding variables already set.
func loadEnvFile() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
	}
}
