package property

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

// Attribute names differ per county; the first present key wins.
var (
	parcelIDFields  = []string{"PARCEL_ID", "PARCELID", "APN", "PIN"}
	ownerFields     = []string{"OWNER", "OWNER_NAME", "OWNERNME1"}
	assessedFields  = []string{"ASSESSED_VALUE", "TOTAL_VALUE", "CNTASSDVAL", "APPRAISED_VALUE"}
	yearBuiltFields = []string{"YEAR_BUILT", "YRBLT", "RESYRBLT"}
	sqftFields      = []string{"LIVING_SQFT", "BLDG_SQFT", "SQFT", "RESFLRAREA"}
)

// CountyGIS queries an ArcGIS FeatureServer parcel layer by point.
// BaseURL is the layer URL, e.g. https://gis.example.gov/arcgis/rest/services/Parcels/FeatureServer/0
type CountyGIS struct {
	client *integration.BaseClient
}

func NewCountyGIS(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *CountyGIS {
	return &CountyGIS{client: integration.NewBaseClient("county_gis", cfg, logger, opts...)}
}

func (g *CountyGIS) Parcel(ctx context.Context, loc *Location) (*Parcel, error) {
	if g.client.BaseURL() == "" {
		return nil, errors.New("county gis layer not configured")
	}
	if loc == nil {
		return nil, ErrNoResults
	}

	body, err := g.client.Do(ctx, "parcel_query", &integration.Request{
		Path: "/query",
		Query: url.Values{
			"geometry":       {strconv.FormatFloat(loc.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(loc.Lat, 'f', 6, 64)},
			"geometryType":   {"esriGeometryPoint"},
			"inSR":           {"4326"},
			"spatialRel":     {"esriSpatialRelIntersects"},
			"outFields":      {"*"},
			"returnGeometry": {"false"},
			"f":              {"json"},
		},
	})
	if err != nil {
		return nil, err
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return nil, errors.New("county gis: " + msg.String())
	}

	attrs := gjson.GetBytes(body, "features.0.attributes")
	if !attrs.Exists() {
		return nil, ErrNoResults
	}

	raw, _ := attrs.Value().(map[string]any)
	return &Parcel{
		ParcelID:      firstField(attrs, parcelIDFields).String(),
		Owner:         strings.TrimSpace(firstField(attrs, ownerFields).String()),
		AssessedValue: firstField(attrs, assessedFields).Float(),
		YearBuilt:     firstField(attrs, yearBuiltFields).Int(),
		LivingSqft:    firstField(attrs, sqftFields).Float(),
		Attributes:    raw,
	}, nil
}

func firstField(attrs gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := attrs.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
