package property

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

const defaultRadiusMeters = 1000

// amenities counted around a property
var neighborhoodAmenities = []string{"school", "hospital", "pharmacy", "supermarket", "bus_station", "police", "fire_station", "library"}

// Overpass counts nearby OpenStreetMap amenities.
type Overpass struct {
	client *integration.BaseClient
	radius int
}

func NewOverpass(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *Overpass {
	return &Overpass{client: integration.NewBaseClient("overpass", cfg, logger, opts...), radius: defaultRadiusMeters}
}

func (o *Overpass) Neighborhood(ctx context.Context, loc *Location) (*Neighborhood, error) {
	if loc == nil {
		return nil, ErrNoResults
	}

	query := fmt.Sprintf(`[out:json][timeout:10];node(around:%d,%f,%f)["amenity"~"^(%s)$"];out tags;`,
		o.radius, loc.Lat, loc.Lon, amenityPattern())
	req := integration.FormRequest(http.MethodPost, "/interpreter", url.Values{"data": {query}})
	body, err := o.client.Do(ctx, "amenities", req)
	if err != nil {
		return nil, err
	}

	n := &Neighborhood{RadiusMeters: o.radius, Amenities: map[string]int{}}
	gjson.GetBytes(body, "elements.#.tags.amenity").ForEach(func(_, v gjson.Result) bool {
		n.Amenities[v.String()]++
		n.Total++
		return true
	})
	return n, nil
}

func amenityPattern() string {
	names := slices.Clone(neighborhoodAmenities)
	slices.Sort(names)
	return strings.Join(names, "|")
}
