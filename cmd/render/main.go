package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/export"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/scene"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger        `group:"Logger options"`
	Feeds  config.FeedOverrides `group:"Feed options"`

	ConfigFile string `short:"c" long:"config"  env:"CONFIG_FILE"   description:"Path to configuration file" default:"config.yaml"`
	OutDir     string `short:"o" long:"out"     env:"OUTPUT_DIR"    description:"Output directory"           default:"public"`
	Preview    int    `short:"w" long:"preview" env:"PREVIEW_WIDTH" description:"Also write a WebP snapshot of this width, 0 disables" default:"0"`
	Force      bool   `short:"f" long:"force"   description:"Force overwrite of existing files"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}
}

// run performs one render pass. Deferred cleanup completes before main exits.
func run(opts Options) error {
	cfg, found, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !found {
		log.Debug().Str("config", opts.ConfigFile).Msg("Configuration file not found, using defaults")
	}
	if err := opts.Feeds.Apply(cfg); err != nil {
		return fmt.Errorf("feed options: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("earthquakes", cfg.Feeds.Earthquakes).
		Str("plates", cfg.Feeds.Plates).
		Str("out", opts.OutDir).
		Msg("Starting render")

	feeds, err := feed.NewLoader(feed.NewClient(), cfg.Feeds).Load(ctx)
	if err != nil {
		return err
	}

	sc := scene.Build(feeds, style.NewMapper(cfg.Popup))

	w := export.Writer{Dir: opts.OutDir, Force: opts.Force, PreviewWidth: opts.Preview}
	written, err := w.WriteScene(sc)
	if err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	log.Info().
		Strs("files", written).
		Int("markers", len(sc.Markers)).
		Int("lines", len(sc.Lines)).
		Int("skipped", len(sc.Skipped)).
		Msg("Render finished successfully")

	return nil
}
