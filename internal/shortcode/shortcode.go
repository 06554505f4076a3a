// Package shortcode generates the 6-character confirmation codes printed on
// payment receipts. Codes avoid visually ambiguous characters (0/O, 1/I) and
// a deny-list of substrings nobody wants on a receipt. Uniqueness against the
// payment table is a separate concern handled by the caller.
package shortcode

import (
	"math/rand/v2"
	"strings"
	"time"
)

// alphabet is the 32-symbol set used for both the timestamp encoding and the
// random tail. 0, O, 1 and I are excluded.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const digits = "23456789"

var forbiddenSubstrings = []string{
	"ASS", "FAG", "GAY", "FUX", "FUK", "FCK", "KKK", "CUM",
	"JEW", "SEX", "JAP", "WOP", "DIK", "DIE", "COK", "KOK",
	"TIT", "VAG", "PUS", "SHT", "DMN", "HEL", "NIG", "RAP",
	"FKN", "WTF", "OMG", "GOD",
}

func containsForbidden(code string) bool {
	upper := strings.ToUpper(code)
	for _, s := range forbiddenSubstrings {
		if strings.Contains(upper, s) {
			return true
		}
	}
	return false
}

// encodeTimestamp writes the millisecond timestamp in base 32 using the safe
// alphabet, so the timestamp window can never reintroduce ambiguous
// characters.
func encodeTimestamp(ms int64) string {
	if ms <= 0 {
		return string(alphabet[0])
	}
	var b [16]byte
	i := len(b)
	for ms > 0 {
		i--
		b[i] = alphabet[ms%32]
		ms /= 32
	}
	return string(b[i:])
}

// Generate produces a 6-character code: a 3-character window of the encoded
// timestamp plus 3 random characters. If a candidate contains a deny-listed
// substring the window slides backwards and a new candidate is drawn, up to 8
// attempts; after that a numeric-only fallback is returned.
func Generate() string {
	const maxAttempts = 8
	start := -1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		ts := encodeTimestamp(time.Now().UnixMilli())
		if start < 0 || start+3 > len(ts) {
			start = len(ts) - 3
		}

		code := ts[start:start+3] + randomChars(3)
		if !containsForbidden(code) {
			return code
		}

		if start == 0 {
			start = len(ts) - 3
		} else {
			start--
		}
	}

	// Numeric fallback, unoffendable by construction.
	b := make([]byte, 6)
	for i := range b {
		b[i] = digits[rand.IntN(len(digits))]
	}
	return string(b)
}

func randomChars(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// Format renders a stored code for humans, e.g. "ABC234" -> "ABC-234".
func Format(code string) string {
	if len(code) != 6 {
		return code
	}
	return code[:3] + "-" + code[3:]
}

// Clean strips display formatting and upper-cases, the inverse of Format.
func Clean(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
