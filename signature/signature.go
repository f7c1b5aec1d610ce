// Package signature verifies that inbound webhook requests were signed by
// Slack with the shared signing secret.
//
// The signed base string is "v0:" + timestamp + ":" + body, and the header
// value is "v0=" followed by the hex HMAC-SHA256 of that string. Requests
// older or newer than MaxSkew are rejected to bound replay exposure.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	// Version is the signature scheme prefix.
	Version = "v0"

	// HeaderSignature carries the "v0=<hex>" signature.
	HeaderSignature = "X-Slack-Signature"

	// HeaderTimestamp carries the request time in decimal Unix seconds.
	HeaderTimestamp = "X-Slack-Request-Timestamp"

	// MaxSkew is the largest accepted distance between the request
	// timestamp and the local clock.
	MaxSkew = 5 * time.Minute
)

// ErrUnauthorized is returned for every rejected request. The reason is
// deliberately not distinguished.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks request signatures against a signing secret. It is safe
// for concurrent use.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock replaces the time source used for the freshness check.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier returns a Verifier for the given signing secret. Panics if the
// secret is empty: a verifier with no secret would accept forged requests
// signed with an empty key.
func NewVerifier(secret string, opts ...Option) *Verifier {
	if secret == "" {
		panic("signature.NewVerifier: secret is required")
	}
	v := &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify returns nil if body was signed with the verifier's secret at
// timestamp and timestamp is within MaxSkew of now. Otherwise it returns
// ErrUnauthorized. body must be the exact bytes received on the wire.
func (v *Verifier) Verify(body []byte, sig, timestamp string) error {
	if sig == "" || timestamp == "" {
		return ErrUnauthorized
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrUnauthorized
	}
	now, window := v.now().Unix(), int64(MaxSkew/time.Second)
	if ts < now-window || ts > now+window {
		return ErrUnauthorized
	}
	expected := compute(v.secret, timestamp, body)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Sign returns the signature header value for body at timestamp.
func (v *Verifier) Sign(body []byte, timestamp string) string {
	return compute(v.secret, timestamp, body)
}

// Sign computes the signature header value for body at timestamp using
// secret. It is the counterpart of Verify, used for local testing.
func Sign(secret string, body []byte, timestamp string) string {
	return compute([]byte(secret), timestamp, body)
}

func compute(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(Version + ":" + timestamp + ":"))
	mac.Write(body)
	return Version + "=" + hex.EncodeToString(mac.Sum(nil))
}
