package property

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foreclosure-assist/pkg/config"
)

type geocodeFunc func(ctx context.Context, address string) (*Location, error)

func (f geocodeFunc) Geocode(ctx context.Context, address string) (*Location, error) {
	return f(ctx, address)
}

type fakeSources struct {
	demoErr   error
	parcelErr error
	panicOSM  bool
	calls     int32
}

func (f *fakeSources) Demographics(ctx context.Context, loc *Location) (*Demographics, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.demoErr != nil {
		return nil, f.demoErr
	}
	return &Demographics{TractName: "Tract 1", MedianHomeValue: 250000}, nil
}

func (f *fakeSources) Parcel(ctx context.Context, loc *Location) (*Parcel, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.parcelErr != nil {
		return nil, f.parcelErr
	}
	return &Parcel{ParcelID: "P-1"}, nil
}

func (f *fakeSources) Neighborhood(ctx context.Context, loc *Location) (*Neighborhood, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panicOSM {
		panic("boom")
	}
	return &Neighborhood{Total: 3}, nil
}

func okGeocoder() Geocoder {
	return geocodeFunc(func(ctx context.Context, address string) (*Location, error) {
		return &Location{Lat: 1, Lon: 2, Provider: "test"}, nil
	})
}

func TestAggregate_AllSourcesSucceed(t *testing.T) {
	src := &fakeSources{}
	a := NewAggregator(okGeocoder(), src, src, src, zap.NewNop())

	r, err := a.Aggregate(context.Background(), "  1 Main St  ")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", r.Address)
	assert.NotNil(t, r.Location)
	assert.Equal(t, "Tract 1", r.Demographics.TractName)
	assert.Equal(t, "P-1", r.Parcel.ParcelID)
	assert.Equal(t, 3, r.Neighborhood.Total)
	assert.Empty(t, r.Errors)
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestAggregate_FailuresAreIsolated(t *testing.T) {
	src := &fakeSources{parcelErr: errors.New("gis down"), panicOSM: true}
	a := NewAggregator(okGeocoder(), src, src, src, zap.NewNop())

	r, err := a.Aggregate(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.NotNil(t, r.Demographics)
	assert.Nil(t, r.Parcel)
	assert.Nil(t, r.Neighborhood)
	assert.Equal(t, "gis down", r.Errors[SourceParcel])
	assert.Contains(t, r.Errors[SourceNeighborhood], "panicked")
}

func TestAggregate_GeocodeFailureSkipsDependents(t *testing.T) {
	src := &fakeSources{}
	failing := geocodeFunc(func(ctx context.Context, address string) (*Location, error) {
		return nil, ErrNoResults
	})
	a := NewAggregator(failing, src, src, src, zap.NewNop())

	r, err := a.Aggregate(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, r.Location)
	assert.Nil(t, r.Demographics)
	assert.Nil(t, r.Parcel)
	assert.Nil(t, r.Neighborhood)
	assert.Contains(t, r.Errors, SourceGeocode)
	assert.Equal(t, int32(0), atomic.LoadInt32(&src.calls))
}

func TestAggregate_EmptyAddress(t *testing.T) {
	a := NewAggregator(okGeocoder(), nil, nil, nil, zap.NewNop())
	_, err := a.Aggregate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAggregate_UnconfiguredSourcesAreNil(t *testing.T) {
	a := NewAggregator(okGeocoder(), nil, nil, nil, zap.NewNop())
	r, err := a.Aggregate(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.NotNil(t, r.Location)
	assert.Nil(t, r.Demographics)
	assert.Empty(t, r.Errors)
}

func TestChainGeocoder(t *testing.T) {
	first := geocodeFunc(func(ctx context.Context, address string) (*Location, error) {
		return nil, errors.New("quota")
	})
	c := NewChainGeocoder(zap.NewNop(), first, okGeocoder())
	loc, err := c.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "test", loc.Provider)

	_, err = NewChainGeocoder(zap.NewNop(), first).Geocode(context.Background(), "x")
	assert.ErrorContains(t, err, "quota")
}

func TestNewAggregatorFromConfig_OptionalSources(t *testing.T) {
	a := NewAggregatorFromConfig(config.VendorsConfig{}, nil, zap.NewNop())
	assert.Nil(t, a.parcels)
	assert.NotNil(t, a.demographics)
	assert.NotNil(t, a.neighborhood)
	_, cached := a.geocoder.(*CachedGeocoder)
	assert.False(t, cached)

	a = NewAggregatorFromConfig(config.VendorsConfig{CountyGIS: config.VendorConfig{BaseURL: "http://gis.example"}}, nil, zap.NewNop())
	assert.NotNil(t, a.parcels)
}
