package enrichment

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/twmb/murmur3"
)

// fingerprintSeparator joins the signal tuple before hashing. Multi-character
// on purpose: single characters show up inside header values.
const fingerprintSeparator = "~~~"

// Signals is the ordered tuple of request signals a visitor identity is
// derived from.
type Signals struct {
	UserAgent      string
	IP             string
	Accept         string
	AcceptLanguage string
}

// Fingerprint derives a stable pseudo-anonymous visitor identifier from the
// signal tuple. Absent signals are dropped, present ones joined in order and
// hashed with 128-bit murmur3. Deterministic across restarts and platforms;
// collisions are an accepted identification risk, this is not a security
// primitive.
func Fingerprint(s Signals) string {
	parts := lo.Compact([]string{s.UserAgent, s.IP, s.Accept, s.AcceptLanguage})
	h1, h2 := murmur3.StringSum128(strings.Join(parts, fingerprintSeparator))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
