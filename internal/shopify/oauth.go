package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

var ErrOAuthUnavailable = errors.New("shopify oauth is not configured")

// OAuth builds per-shop oauth2 configurations. Shopify hosts the authorize
// and token endpoints on each shop's own domain.
type OAuth struct {
	ClientID     string
	ClientSecret string
	Scopes       string
	RedirectURL  string
	HTTPClient   *http.Client
}

func (o *OAuth) config(shop string) *oauth2.Config {
	base := "https://" + shop + "/admin/oauth"
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/authorize",
			TokenURL:  base + "/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		// Shopify expects a single comma-separated scope parameter.
		Scopes:      []string{o.Scopes},
		RedirectURL: o.RedirectURL,
	}
}

// AuthorizationURL returns the URL the shop owner is sent to to approve the app.
func (o *OAuth) AuthorizationURL(shop, state string) (string, error) {
	if o == nil || o.ClientID == "" {
		return "", ErrOAuthUnavailable
	}
	return o.config(shop).AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for a permanent access token.
// Vendor failures are returned as *APIError so callers can surface the status.
func (o *OAuth) ExchangeCode(ctx context.Context, shop, code string) (string, error) {
	if o == nil || o.ClientID == "" || o.ClientSecret == "" {
		return "", ErrOAuthUnavailable
	}
	if o.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.HTTPClient)
	}

	token, err := o.config(shop).Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &APIError{
				StatusCode: retrieveErr.Response.StatusCode,
				Message:    retrieveErrorMessage(retrieveErr),
			}
		}
		return "", fmt.Errorf("token exchange: %w", err)
	}

	return token.AccessToken, nil
}

func retrieveErrorMessage(err *oauth2.RetrieveError) string {
	if err.ErrorDescription != "" {
		return err.ErrorDescription
	}
	if err.ErrorCode != "" {
		return err.ErrorCode
	}
	return strings.TrimSpace(string(err.Body))
}

// CallbackURL joins the public base address with the OAuth callback path.
func CallbackURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/shopify/callback"
}
