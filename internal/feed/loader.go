// Package feed downloads the earthquake and tectonic plate GeoJSON feeds.
package feed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Feed names used in errors, logs and metrics.
const (
	Earthquakes = "earthquakes"
	Plates      = "plates"
)

const userAgent = "quakemap/1.0 (+https://github.com/woozymasta/quakemap)"

// Feeds is the combined payload of one load. It is read-only once returned.
type Feeds struct {
	FetchedAt   time.Time
	Earthquakes geo.GeoJSONFeatureCollection
	Plates      geo.GeoJSONFeatureCollection
}

// Loader fetches both feeds.
type Loader struct {
	Client          *http.Client
	EarthquakesURL  string
	PlatesURL       string
	Timeout         time.Duration // per attempt, 0 disables
	MaxRetries      int
	InitialInterval time.Duration
}

// NewClient returns the HTTP client used for feed downloads.
// HTTP/2 is disabled and idle connections are pooled per host.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 4,
		},
	}
}

// NewLoader builds a loader from feed configuration.
func NewLoader(client *http.Client, cfg config.Feeds) *Loader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Loader{
		Client:          client,
		EarthquakesURL:  cfg.Earthquakes,
		PlatesURL:       cfg.Plates,
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Load fetches both feeds concurrently and returns once both have settled.
// If either fails the other is cancelled and no payload is returned.
func (l *Loader) Load(ctx context.Context) (*Feeds, error) {
	var out Feeds

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := l.fetch(gctx, Earthquakes, l.EarthquakesURL)
		out.Earthquakes = fc
		return err
	})
	g.Go(func() error {
		fc, err := l.fetch(gctx, Plates, l.PlatesURL)
		out.Plates = fc
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.FetchedAt = time.Now()
	return &out, nil
}

// fetch downloads one feed, retrying transient failures with exponential backoff.
func (l *Loader) fetch(ctx context.Context, name, url string) (geo.GeoJSONFeatureCollection, error) {
	start := time.Now()
	defer func() {
		metrics.FeedDurationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	var fc geo.GeoJSONFeatureCollection
	op := func() error {
		var err error
		fc, err = l.fetchOnce(ctx, name, url)
		if err == nil {
			metrics.FeedRequestsTotal.WithLabelValues(name, "ok").Inc()
			return nil
		}

		metrics.FeedRequestsTotal.WithLabelValues(name, "error").Inc()

		var fe *FetchError
		if ctx.Err() != nil || (errors.As(err, &fe) && !fe.Retryable()) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	if l.InitialInterval > 0 {
		b.InitialInterval = l.InitialInterval
	}
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(l.MaxRetries, 0))), ctx)
	notify := func(err error, wait time.Duration) {
		metrics.FeedRetriesTotal.WithLabelValues(name).Inc()
		log.Warn().
			Err(err).
			Str("feed", name).
			Dur("backoff", wait).
			Msg("Feed fetch failed, retrying")
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Feed: name, URL: url, Kind: KindTransport, Err: err}
		}
		return geo.GeoJSONFeatureCollection{}, err
	}

	log.Debug().
		Str("feed", name).
		Int("features", len(fc.Features)).
		Dur("duration", time.Since(start)).
		Msg("Feed fetched")

	return fc, nil
}

// fetchOnce performs a single GET and decodes the FeatureCollection.
func (l *Loader) fetchOnce(ctx context.Context, name, url string) (geo.GeoJSONFeatureCollection, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, &FetchError{Feed: name, URL: url, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.Client.Do(req)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, &FetchError{Feed: name, URL: url, Kind: KindTransport, Err: err}
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return geo.GeoJSONFeatureCollection{}, &FetchError{
			Feed:       name,
			URL:        url,
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	fc, err := Decode(resp.Body)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, &FetchError{Feed: name, URL: url, Kind: KindDecode, Err: err}
	}

	return fc, nil
}

// Decode reads a GeoJSON FeatureCollection, keeping numbers exact.
func Decode(r io.Reader) (geo.GeoJSONFeatureCollection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var fc geo.GeoJSONFeatureCollection
	if err := dec.Decode(&fc); err != nil {
		return geo.GeoJSONFeatureCollection{}, err
	}
	if fc.Type != "FeatureCollection" {
		return geo.GeoJSONFeatureCollection{}, fmt.Errorf("unexpected GeoJSON type %q", fc.Type)
	}
	if fc.Features == nil {
		fc.Features = []geo.GeoJSONFeature{}
	}

	return fc, nil
}
