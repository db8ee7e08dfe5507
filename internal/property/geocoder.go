package property

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

// CensusGeocoder resolves coordinates and tract FIPS codes in one call. No key needed.
type CensusGeocoder struct {
	client *integration.BaseClient
}

func NewCensusGeocoder(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *CensusGeocoder {
	return &CensusGeocoder{client: integration.NewBaseClient("census_geocoder", cfg, logger, opts...)}
}

func (g *CensusGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	body, err := g.client.Do(ctx, "geocode", &integration.Request{
		Path: "/geographies/onelineaddress",
		Query: url.Values{
			"address":   {address},
			"benchmark": {"Public_AR_Current"},
			"vintage":   {"Current_Current"},
			"layers":    {"Census Tracts"},
			"format":    {"json"},
		},
	})
	if err != nil {
		return nil, err
	}

	match := gjson.GetBytes(body, "result.addressMatches.0")
	if !match.Exists() {
		return nil, ErrNoResults
	}
	tract := match.Get(`geographies.Census Tracts.0`)
	return &Location{
		Lat:              match.Get("coordinates.y").Float(),
		Lon:              match.Get("coordinates.x").Float(),
		FormattedAddress: match.Get("matchedAddress").String(),
		StateFIPS:        tract.Get("STATE").String(),
		CountyFIPS:       tract.Get("COUNTY").String(),
		Tract:            tract.Get("TRACT").String(),
		Provider:         "census",
	}, nil
}

// GoogleGeocoder uses the Maps Geocoding API; skipped when no key is configured.
type GoogleGeocoder struct {
	client *integration.BaseClient
	apiKey string
}

func NewGoogleGeocoder(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *GoogleGeocoder {
	return &GoogleGeocoder{client: integration.NewBaseClient("google_maps", cfg, logger, opts...), apiKey: cfg.APIKey}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	if g.apiKey == "" {
		return nil, errors.New("google maps api key not configured")
	}
	body, err := g.client.Do(ctx, "geocode", &integration.Request{
		Path:  "/geocode/json",
		Query: url.Values{"address": {address}, "key": {g.apiKey}},
	})
	if err != nil {
		return nil, err
	}

	switch status := gjson.GetBytes(body, "status").String(); status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("google geocode status %s: %s", status, gjson.GetBytes(body, "error_message").String())
	}

	first := gjson.GetBytes(body, "results.0")
	return &Location{
		Lat:              first.Get("geometry.location.lat").Float(),
		Lon:              first.Get("geometry.location.lng").Float(),
		FormattedAddress: first.Get("formatted_address").String(),
		Provider:         "google",
	}, nil
}

// NominatimGeocoder is the OpenStreetMap geocoder of last resort.
type NominatimGeocoder struct {
	client *integration.BaseClient
}

func NewNominatimGeocoder(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *NominatimGeocoder {
	if cfg.RPS == 0 {
		// usage policy: at most one request per second
		cfg.RPS = 1
	}
	return &NominatimGeocoder{client: integration.NewBaseClient("nominatim", cfg, logger, opts...)}
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	body, err := g.client.Do(ctx, "geocode", &integration.Request{
		Path:   "/search",
		Query:  url.Values{"q": {address}, "format": {"jsonv2"}, "limit": {"1"}, "countrycodes": {"us"}},
		Header: http.Header{"User-Agent": {"foreclosure-assist/1.0"}},
	})
	if err != nil {
		return nil, err
	}
	first := gjson.GetBytes(body, "0")
	if !first.Exists() {
		return nil, ErrNoResults
	}
	// Nominatim returns coordinates as strings
	return &Location{
		Lat:              first.Get("lat").Float(),
		Lon:              first.Get("lon").Float(),
		FormattedAddress: first.Get("display_name").String(),
		Provider:         "nominatim",
	}, nil
}

// ChainGeocoder returns the first provider that answers.
type ChainGeocoder struct {
	providers []Geocoder
	logger    *zap.Logger
}

func NewChainGeocoder(logger *zap.Logger, providers ...Geocoder) *ChainGeocoder {
	return &ChainGeocoder{providers: providers, logger: logger}
}

func (c *ChainGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	var errs []error
	for _, p := range c.providers {
		loc, err := p.Geocode(ctx, address)
		if err == nil {
			return loc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("Geocoder provider failed, trying next", zap.Error(err))
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no geocoder configured")
	}
	return nil, errors.Join(errs...)
}
