package client

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature marks a webhook delivery that failed the authenticity
// check. It is a permanent rejection; the provider must not retry it.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

const defaultSignatureTolerance = 5 * time.Minute

// SignatureVerifier checks a raw webhook payload against its signature
// header before any parsing happens.
type SignatureVerifier interface {
	Verify(payload []byte, sigHeader string) error
}

// WebhookVerifier verifies the provider's signature scheme: the header
// carries `t=<unix>,v1=<hex hmac>` pairs and the HMAC-SHA256 is computed
// over "<t>.<raw body>" with the shared endpoint secret.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    secret,
		tolerance: defaultSignatureTolerance,
		now:       time.Now,
	}
}

func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) error {
	if sigHeader == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}

	return fmt.Errorf("%w: no matching v1 signature", ErrInvalidSignature)
}

func parseSignatureHeader(header string) (timestamp int64, signatures []string, err error) {
	timestamp = -1
	for _, pair := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, parseErr := strconv.ParseInt(v, 10, 64)
			if parseErr != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, v)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}
