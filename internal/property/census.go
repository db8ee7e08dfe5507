package property

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"foreclosure-assist/internal/integration"
	"foreclosure-assist/pkg/config"
)

// ACS variables requested per tract.
const (
	acsPopulation   = "B01003_001E"
	acsMedianIncome = "B19013_001E"
	acsMedianValue  = "B25077_001E"
	acsMedianRent   = "B25064_001E"
)

// CensusACS reads tract-level American Community Survey estimates.
type CensusACS struct {
	client *integration.BaseClient
	apiKey string
}

func NewCensusACS(cfg config.VendorConfig, logger *zap.Logger, opts ...integration.Option) *CensusACS {
	return &CensusACS{client: integration.NewBaseClient("census_acs", cfg, logger, opts...), apiKey: cfg.APIKey}
}

func (c *CensusACS) Demographics(ctx context.Context, loc *Location) (*Demographics, error) {
	if loc == nil || loc.StateFIPS == "" || loc.CountyFIPS == "" || loc.Tract == "" {
		return nil, ErrNoTract
	}

	q := url.Values{
		"get": {"NAME," + acsPopulation + "," + acsMedianIncome + "," + acsMedianValue + "," + acsMedianRent},
		"for": {"tract:" + loc.Tract},
		"in":  {"state:" + loc.StateFIPS + " county:" + loc.CountyFIPS},
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	body, err := c.client.Do(ctx, "acs5", &integration.Request{Query: q})
	if err != nil {
		return nil, err
	}

	// response is [[header...],[values...]]
	header := gjson.GetBytes(body, "0").Array()
	values := gjson.GetBytes(body, "1").Array()
	if len(header) == 0 || len(values) != len(header) {
		return nil, fmt.Errorf("census: unexpected response shape")
	}
	row := make(map[string]string, len(header))
	for i, h := range header {
		row[h.String()] = values[i].String()
	}

	return &Demographics{
		TractName:          row["NAME"],
		Population:         acsInt(row[acsPopulation]),
		MedianHouseholdInc: acsInt(row[acsMedianIncome]),
		MedianHomeValue:    acsInt(row[acsMedianValue]),
		MedianGrossRent:    acsInt(row[acsMedianRent]),
	}, nil
}

// acsInt treats the Census "annotation" negatives (e.g. -666666666) as missing.
func acsInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
