package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultTolerance is the maximum age of a signed webhook.
const DefaultTolerance = 5 * time.Minute

var (
	ErrNoSecret         = errors.New("stripe: webhook secret not configured")
	ErrInvalidHeader    = errors.New("stripe: invalid signature header")
	ErrNoValidSignature = errors.New("stripe: no valid signature")
	ErrTooOld           = errors.New("stripe: timestamp outside tolerance")
)

// Event is the subset of a webhook event the payment flow reads.
type Event struct {
	ID     string
	Type   string
	Object gjson.Result // data.object
}

// VerifyWebhook checks the Stripe-Signature header and parses the event.
// An empty secret rejects every event.
func VerifyWebhook(payload []byte, header, secret string) (*Event, error) {
	return verifyAt(payload, header, secret, time.Now(), DefaultTolerance)
}

func verifyAt(payload []byte, header, secret string, now time.Time, tolerance time.Duration) (*Event, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	var ts int64
	var sigs [][]byte
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, ErrInvalidHeader
			}
			ts = n
		case "v1":
			sig, err := hex.DecodeString(v)
			if err == nil {
				sigs = append(sigs, sig)
			}
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return nil, ErrInvalidHeader
	}

	expected := Sign(payload, secret, ts)
	valid := false
	for _, sig := range sigs {
		if hmac.Equal(sig, expected) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrNoValidSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return nil, ErrTooOld
	}

	if !gjson.ValidBytes(payload) {
		return nil, errors.New("stripe: invalid event json")
	}
	return &Event{
		ID:     gjson.GetBytes(payload, "id").String(),
		Type:   gjson.GetBytes(payload, "type").String(),
		Object: gjson.GetBytes(payload, "data.object"),
	}, nil
}

// Sign computes the v1 signature for payload at timestamp ts.
func Sign(payload []byte, secret string, ts int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader builds a header value, used by tests and local tooling.
func SignatureHeader(payload []byte, secret string, ts time.Time) string {
	return "t=" + strconv.FormatInt(ts.Unix(), 10) + ",v1=" + hex.EncodeToString(Sign(payload, secret, ts.Unix()))
}
