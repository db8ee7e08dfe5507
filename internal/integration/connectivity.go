package integration

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"foreclosure-assist/pkg/config"
)

// DefaultCheckTimeout bounds each HEAD request.
const DefaultCheckTimeout = 3 * time.Second

// Target is one vendor endpoint to check.
type Target struct {
	Name string
	URL  string
}

// CheckResult reports whether a vendor answered. Any HTTP status counts as reachable.
type CheckResult struct {
	Vendor     string `json:"vendor"`
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

// Connectivity checks configured vendors for the admin dashboard.
type Connectivity struct {
	client  *http.Client
	targets []Target
	timeout time.Duration
	logger  *zap.Logger
}

func NewConnectivity(targets []Target, logger *zap.Logger) *Connectivity {
	return &Connectivity{
		client: &http.Client{
			// redirects mean the host answered
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		targets: targets,
		timeout: DefaultCheckTimeout,
		logger:  logger,
	}
}

// TargetsFromConfig lists every vendor with a base URL.
func TargetsFromConfig(cfg config.VendorsConfig) []Target {
	all := map[string]config.VendorConfig{
		"hubspot":     cfg.HubSpot,
		"mailerlite":  cfg.MailerLite,
		"twilio":      cfg.Twilio,
		"stripe":      cfg.Stripe,
		"paypal":      cfg.PayPal,
		"google_maps": cfg.GoogleMaps,
		"nominatim":   cfg.Nominatim,
		"census":      cfg.Census,
		"census_acs":  cfg.CensusACS,
		"county_gis":  cfg.CountyGIS,
		"overpass":    cfg.Overpass,
	}
	targets := make([]Target, 0, len(all))
	for name, v := range all {
		if v.BaseURL != "" {
			targets = append(targets, Target{Name: name, URL: v.BaseURL})
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })
	return targets
}

// Check pings all targets concurrently. Results keep the target order.
func (c *Connectivity) Check(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(c.targets))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range c.targets {
		i, t := i, t
		g.Go(func() error {
			results[i] = c.checkOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	down := 0
	for _, r := range results {
		if !r.Reachable {
			down++
		}
	}
	if down > 0 {
		c.logger.Warn("Vendor connectivity degraded", zap.Int("unreachable", down), zap.Int("total", len(results)))
	}
	return results
}

func (c *Connectivity) checkOne(ctx context.Context, t Target) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res := CheckResult{Vendor: t.Name, URL: t.URL}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.URL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := c.client.Do(req)
	res.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()
	res.Reachable = true
	res.StatusCode = resp.StatusCode
	return res
}
