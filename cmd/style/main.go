package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/logger"
	"github.com/woozymasta/quakemap/internal/scene"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input    string `short:"i" long:"in" description:"Input GeoJSON feed file. Reads from stdin if empty"`
	Output   string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format   string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Layer    string `short:"l" long:"layer" description:"How to style the input" choice:"earthquakes" choice:"plates" default:"earthquakes"`
	TimeZone string `short:"z" long:"time-zone" description:"Popup time zone" default:"UTC"`
	Escape   bool   `short:"e" long:"escape-html" description:"Escape place names in popups"`
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

	if err := run(opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run styles one feed. The input file is closed before main exits.
func run(opts Options, stdin io.Reader, stdout, stderr io.Writer) error {
	if _, err := time.LoadLocation(opts.TimeZone); err != nil {
		return err
	}
	popup := config.Popup{TimeZone: opts.TimeZone, EscapeHTML: opts.Escape}

	// Read Input
	in := stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	fc, err := feed.Decode(in)
	if err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}

	feeds := &feed.Feeds{Earthquakes: empty(), Plates: empty()}
	if opts.Layer == scene.LayerPlates {
		feeds.Plates = fc
	} else {
		feeds.Earthquakes = fc
	}

	sc := scene.Build(feeds, style.NewMapper(popup))

	var out any = sc.EarthquakesGeoJSON()
	count := len(sc.Markers)
	if opts.Layer == scene.LayerPlates {
		out = sc.PlatesGeoJSON()
		count = len(sc.Lines)
	}

	outputData, err := encode(out, opts.Format)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	for _, s := range sc.Skipped {
		fmt.Fprintf(stderr, "Skipping %s: %s\n", s.ID, s.Reason)
	}

	if opts.Output == "" {
		_, err := fmt.Fprintln(stdout, string(outputData))
		return err
	}

	if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	fmt.Fprintf(stderr, "Successfully styled %d %s to %s (format: %s)\n", count, opts.Layer, opts.Output, opts.Format)
	return nil
}

func empty() geo.GeoJSONFeatureCollection {
	return geo.GeoJSONFeatureCollection{Type: "FeatureCollection", Features: []geo.GeoJSONFeature{}}
}

// encode writes v as indented JSON, or as YAML via its generic JSON form.
func encode(v any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
