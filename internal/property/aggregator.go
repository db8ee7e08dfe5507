package property

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"foreclosure-assist/pkg/logger"
	"foreclosure-assist/pkg/metrics"
	"foreclosure-assist/pkg/otel"
)

// Aggregator builds a PropertyReport from independent sources. Any source may be nil.
type Aggregator struct {
	geocoder     Geocoder
	demographics DemographicsSource
	parcels      ParcelSource
	neighborhood NeighborhoodSource
	logger       *zap.Logger
	now          func() time.Time
}

func NewAggregator(
	geocoder Geocoder,
	demographics DemographicsSource,
	parcels ParcelSource,
	neighborhood NeighborhoodSource,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		geocoder:     geocoder,
		demographics: demographics,
		parcels:      parcels,
		neighborhood: neighborhood,
		logger:       logger,
		now:          time.Now,
	}
}

// Aggregate geocodes the address, then queries the location-based sources concurrently.
// A failed source leaves its section nil and is listed in Errors; the call itself only
// fails on an empty address.
func (a *Aggregator) Aggregate(ctx context.Context, address string) (*PropertyReport, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrInvalidAddress
	}

	ctx, span := otel.StartSpan(ctx, "property.Aggregate")
	defer span.End()
	log := logger.WithTrace(ctx, a.logger).With(zap.String("address", address))

	report := &PropertyReport{Address: address, Errors: map[string]string{}}
	var mu sync.Mutex
	fail := func(source string, err error) {
		mu.Lock()
		report.Errors[source] = err.Error()
		mu.Unlock()
		metrics.IncrementPropertySource(source, "failed")
		log.Warn("Property source failed", zap.String("source", source), zap.Error(err))
	}

	loc, err := runSource(ctx, SourceGeocode, a.geocoder != nil, func(ctx context.Context) (*Location, error) {
		return a.geocoder.Geocode(ctx, address)
	})
	if err != nil {
		fail(SourceGeocode, err)
	}
	report.Location = loc

	if loc == nil {
		for _, s := range []string{SourceDemographics, SourceParcel, SourceNeighborhood} {
			metrics.IncrementPropertySource(s, "skipped")
		}
		report.GeneratedAt = a.now()
		return report, nil
	}

	// each goroutine owns one report field; errors never cancel siblings
	var g errgroup.Group
	g.Go(func() error {
		d, err := runSource(ctx, SourceDemographics, a.demographics != nil, func(ctx context.Context) (*Demographics, error) {
			return a.demographics.Demographics(ctx, loc)
		})
		if err != nil {
			fail(SourceDemographics, err)
		}
		report.Demographics = d
		return nil
	})
	g.Go(func() error {
		p, err := runSource(ctx, SourceParcel, a.parcels != nil, func(ctx context.Context) (*Parcel, error) {
			return a.parcels.Parcel(ctx, loc)
		})
		if err != nil {
			fail(SourceParcel, err)
		}
		report.Parcel = p
		return nil
	})
	g.Go(func() error {
		n, err := runSource(ctx, SourceNeighborhood, a.neighborhood != nil, func(ctx context.Context) (*Neighborhood, error) {
			return a.neighborhood.Neighborhood(ctx, loc)
		})
		if err != nil {
			fail(SourceNeighborhood, err)
		}
		report.Neighborhood = n
		return nil
	})
	_ = g.Wait()

	report.GeneratedAt = a.now()
	log.Info("Property report built", zap.Int("failed_sources", len(report.Errors)))
	return report, nil
}

// runSource wraps one source call in a span and turns panics into errors.
func runSource[T any](ctx context.Context, name string, configured bool, fn func(context.Context) (*T, error)) (res *T, err error) {
	if !configured {
		metrics.IncrementPropertySource(name, "skipped")
		return nil, nil
	}

	ctx, span := otel.StartSpan(ctx, "property.source."+name)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &panicError{source: name, value: r}
		}
		otel.RecordError(span, err)
	}()

	res, err = fn(ctx)
	if err != nil {
		return nil, err
	}
	metrics.IncrementPropertySource(name, "ok")
	return res, nil
}

type panicError struct {
	source string
	value  any
}

func (e *panicError) Error() string {
	return "source " + e.source + " panicked"
}
