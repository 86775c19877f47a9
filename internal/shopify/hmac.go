package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
)

var ErrInvalidHMAC = errors.New("shopify hmac verification failed")

// CanonicalQuery renders params the way Shopify signs them: every key except
// hmac and signature, sorted, as unescaped key=value pairs joined by "&".
// Repeated keys are rendered as a JSON-style array.
func CanonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+canonicalValue(params[k]))
	}
	return strings.Join(parts, "&")
}

func canonicalValue(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, `"`+v+`"`)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// SignQuery returns the hex HMAC-SHA256 of the canonical form of params.
func SignQuery(params url.Values, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalQuery(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks the hmac query parameter against the shared secret
// using a constant-time comparison.
func VerifyHMAC(params url.Values, secret string) error {
	if secret == "" {
		return errors.New("shopify api secret is required")
	}

	provided, err := hex.DecodeString(strings.TrimSpace(params.Get("hmac")))
	if err != nil || len(provided) == 0 {
		return ErrInvalidHMAC
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalQuery(params)))
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrInvalidHMAC
	}
	return nil
}
