package property

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/config"
)

// GeocodeCacheTTL is how long a resolved address stays cached.
const GeocodeCacheTTL = 30 * 24 * time.Hour

// NewAggregatorFromConfig builds the production source set. The Census geocoder is tried
// first since it also yields FIPS codes; Google is only used when a key is configured and
// county GIS only when a base URL is set. rdb may be nil.
func NewAggregatorFromConfig(cfg config.VendorsConfig, rdb redis.Cmdable, logger *zap.Logger) *Aggregator {
	providers := []Geocoder{NewCensusGeocoder(cfg.Census, logger)}
	if cfg.GoogleMaps.APIKey != "" {
		providers = append(providers, NewGoogleGeocoder(cfg.GoogleMaps, logger))
	}
	providers = append(providers, NewNominatimGeocoder(cfg.Nominatim, logger))
	geocoder := NewCachedGeocoder(NewChainGeocoder(logger, providers...), rdb, GeocodeCacheTTL, logger)

	var parcels ParcelSource
	if cfg.CountyGIS.BaseURL != "" {
		parcels = NewCountyGIS(cfg.CountyGIS, logger)
	}

	return NewAggregator(
		geocoder,
		NewCensusACS(cfg.CensusACS, logger),
		parcels,
		NewOverpass(cfg.Overpass, logger),
		logger,
	)
}
