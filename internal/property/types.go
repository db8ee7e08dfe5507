// Package property merges free public data sources into one report for an address
// and estimates value from comparable sales.
package property

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidAddress = errors.New("address is required")
	ErrNoResults      = errors.New("no results")
	ErrNoTract        = errors.New("location has no census tract")
)

// Source names used in reports and metrics.
const (
	SourceGeocode      = "geocode"
	SourceDemographics = "census"
	SourceParcel       = "county_gis"
	SourceNeighborhood = "osm"
)

// Location is the geocoding result. FIPS fields are only set by the Census geocoder.
type Location struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formatted_address"`
	StateFIPS        string  `json:"state_fips,omitempty"`
	CountyFIPS       string  `json:"county_fips,omitempty"`
	Tract            string  `json:"tract,omitempty"`
	Provider         string  `json:"provider"`
}

// Demographics comes from the ACS 5-year estimates for the tract.
type Demographics struct {
	TractName          string `json:"tract_name"`
	Population         int64  `json:"population"`
	MedianHouseholdInc int64  `json:"median_household_income"`
	MedianHomeValue    int64  `json:"median_home_value"`
	MedianGrossRent    int64  `json:"median_gross_rent"`
}

// Parcel is the first matching county GIS feature.
type Parcel struct {
	ParcelID      string         `json:"parcel_id,omitempty"`
	Owner         string         `json:"owner,omitempty"`
	AssessedValue float64        `json:"assessed_value,omitempty"`
	YearBuilt     int64          `json:"year_built,omitempty"`
	LivingSqft    float64        `json:"living_sqft,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// Neighborhood summarises OSM amenities around the location.
type Neighborhood struct {
	RadiusMeters int            `json:"radius_meters"`
	Amenities    map[string]int `json:"amenities"`
	Total        int            `json:"total"`
}

// PropertyReport holds whatever succeeded; a nil section means that source failed or was skipped.
type PropertyReport struct {
	Address      string            `json:"address"`
	Location     *Location         `json:"location"`
	Demographics *Demographics     `json:"demographics"`
	Parcel       *Parcel           `json:"parcel"`
	Neighborhood *Neighborhood     `json:"neighborhood"`
	Errors       map[string]string `json:"errors,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

type DemographicsSource interface {
	Demographics(ctx context.Context, loc *Location) (*Demographics, error)
}

type ParcelSource interface {
	Parcel(ctx context.Context, loc *Location) (*Parcel, error)
}

type NeighborhoodSource interface {
	Neighborhood(ctx context.Context, loc *Location) (*Neighborhood, error)
}
