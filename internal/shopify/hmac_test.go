package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"testing"
)

const testSecret = "hush"

func referenceDigest(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCanonicalQuery_SortsAndExcludesSignatureFields(t *testing.T) {
	t.Parallel()

	params := url.Values{}
	params.Set("timestamp", "1337178173")
	params.Set("shop", "some-shop.myshopify.com")
	params.Set("code", "0907a61c0c8d55e99db179b68161bc00")
	params.Set("state", "nonce")
	params.Set("hmac", "deadbeef")
	params.Set("signature", "legacy")

	got := CanonicalQuery(params)
	want := "code=0907a61c0c8d55e99db179b68161bc00&shop=some-shop.myshopify.com&state=nonce&timestamp=1337178173"
	if got != want {
		t.Fatalf("unexpected canonical query:\n got=%q\nwant=%q", got, want)
	}
}

func TestCanonicalQuery_RepeatedKeys(t *testing.T) {
	t.Parallel()

	params := url.Values{"ids": {"1", "2"}, "shop": {"a.myshopify.com"}}

	got := CanonicalQuery(params)
	want := `ids=["1", "2"]&shop=a.myshopify.com`
	if got != want {
		t.Fatalf("unexpected canonical query: got=%q want=%q", got, want)
	}
}

func TestVerifyHMAC_MatchesReferenceDigest(t *testing.T) {
	t.Parallel()

	message := "code=abc&shop=some-shop.myshopify.com&state=nonce&timestamp=1337178173"
	params, err := url.ParseQuery(message)
	if err != nil {
		t.Fatalf("failed to parse query: %v", err)
	}
	params.Set("hmac", referenceDigest(testSecret, message))

	if got := SignQuery(params, testSecret); got != params.Get("hmac") {
		t.Fatalf("SignQuery mismatch: got=%s want=%s", got, params.Get("hmac"))
	}
	if err := VerifyHMAC(params, testSecret); err != nil {
		t.Fatalf("expected valid hmac, got %v", err)
	}
}

func TestVerifyHMAC_AcceptsUppercaseHex(t *testing.T) {
	t.Parallel()

	params := url.Values{"shop": {"a.myshopify.com"}, "code": {"c"}}
	sum := SignQuery(params, testSecret)
	upper := make([]byte, len(sum))
	for i := range sum {
		c := sum[i]
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	params.Set("hmac", string(upper))

	if err := VerifyHMAC(params, testSecret); err != nil {
		t.Fatalf("expected valid hmac, got %v", err)
	}
}

func TestVerifyHMAC_RejectsSingleCharacterMutation(t *testing.T) {
	t.Parallel()

	message := "code=abc&shop=some-shop.myshopify.com&state=nonce&timestamp=1337178173"
	digest := referenceDigest(testSecret, message)

	for i := 0; i < len(message); i++ {
		if message[i] == '&' || message[i] == '=' {
			continue
		}
		mutated := []byte(message)
		if mutated[i] == 'x' {
			mutated[i] = 'y'
		} else {
			mutated[i] = 'x'
		}

		params, err := url.ParseQuery(string(mutated))
		if err != nil {
			t.Fatalf("failed to parse mutated query %q: %v", mutated, err)
		}
		params.Set("hmac", digest)

		if err := VerifyHMAC(params, testSecret); !errors.Is(err, ErrInvalidHMAC) {
			t.Fatalf("expected ErrInvalidHMAC for mutation at %d (%q), got %v", i, mutated, err)
		}
	}
}

func TestVerifyHMAC_RejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hmac string
	}{
		{name: "missing", hmac: ""},
		{name: "not hex", hmac: "zzzz"},
		{name: "wrong digest", hmac: referenceDigest("other-secret", "shop=a.myshopify.com")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			params := url.Values{"shop": {"a.myshopify.com"}}
			if tc.hmac != "" {
				params.Set("hmac", tc.hmac)
			}
			if err := VerifyHMAC(params, testSecret); !errors.Is(err, ErrInvalidHMAC) {
				t.Fatalf("expected ErrInvalidHMAC, got %v", err)
			}
		})
	}
}

func TestVerifyHMAC_RequiresSecret(t *testing.T) {
	t.Parallel()

	params := url.Values{"shop": {"a.myshopify.com"}, "hmac": {"00"}}
	if err := VerifyHMAC(params, ""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
