package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/gitshopapp/orderrelay/internal/observability"
	"github.com/gitshopapp/orderrelay/internal/services"
	"github.com/gitshopapp/orderrelay/internal/shopify"
)

const stateCookieName = "state"

// ShopifyInstall redirects the shop owner to Shopify to approve the app.
func (h *Handlers) ShopifyInstall(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFromContext(r.Context())

	if h.authService == nil {
		http.Error(w, "Shopify OAuth is not configured", http.StatusServiceUnavailable)
		return
	}

	result, err := h.authService.StartInstall(r.URL.Query().Get("shop"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingParameter):
			http.Error(w, "Missing shop parameter. Please add ?shop=your-development-shop.myshopify.com to your request", http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidShop):
			http.Error(w, "Invalid shop parameter", http.StatusBadRequest)
		case errors.Is(err, services.ErrAuthUnavailable):
			logger.Error("shopify oauth unavailable", "error", err)
			http.Error(w, "Shopify OAuth is not configured", http.StatusServiceUnavailable)
		default:
			logger.Error("failed to start shopify install", "error", err)
			http.Error(w, "Failed to start install", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    result.State,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   SecureCookiesFromConfig(h.config),
		SameSite: http.SameSiteLaxMode,
	})

	logger.Info("redirecting to shopify for install", "shop", result.Shop)
	http.Redirect(w, r, result.AuthorizationURL, http.StatusFound)
}

// ShopifyCallback completes the install and activates the new shop client.
func (h *Handlers) ShopifyCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	if h.authService == nil {
		http.Error(w, "Shopify OAuth is not configured", http.StatusServiceUnavailable)
		return
	}

	storedState := ""
	if cookie, err := r.Cookie(stateCookieName); err == nil {
		storedState = cookie.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   SecureCookiesFromConfig(h.config),
		SameSite: http.SameSiteLaxMode,
	})

	shop, err := h.authService.CompleteInstall(ctx, services.CompleteInstallInput{
		Query:       r.URL.Query(),
		StoredState: storedState,
	})
	if err != nil {
		reason, status, message := callbackFailure(err)
		meter.Count("shopify.install.failed", 1, sentry.WithAttributes(attribute.String("reason", reason)))
		if status >= http.StatusInternalServerError {
			logger.Error("shopify install failed", "reason", reason, "error", err)
		} else {
			logger.Warn("shopify install rejected", "reason", reason, "error", err)
		}
		http.Error(w, message, status)
		return
	}

	meter.Count("shopify.install.completed", 1)
	logger.Info("shopify install completed", "shop", shop)
	http.Redirect(w, r, h.config.FrontendAddress, http.StatusFound)
}

func callbackFailure(err error) (reason string, status int, message string) {
	switch {
	case errors.Is(err, services.ErrMissingParameter):
		return "missing_parameter", http.StatusBadRequest, "Required parameters missing"
	case errors.Is(err, services.ErrStateMismatch):
		return "state_mismatch", http.StatusForbidden, "Request origin cannot be verified"
	case errors.Is(err, services.ErrHMACInvalid):
		return "hmac_invalid", http.StatusBadRequest, "HMAC validation failed"
	case errors.Is(err, services.ErrInvalidShop):
		return "invalid_shop", http.StatusBadRequest, "Invalid shop parameter"
	case errors.Is(err, services.ErrTokenExchange):
		var apiErr *shopify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
			message := apiErr.Message
			if message == "" {
				message = http.StatusText(apiErr.StatusCode)
			}
			return "token_exchange", apiErr.StatusCode, message
		}
		return "token_exchange", http.StatusBadGateway, "Failed to exchange access token"
	case errors.Is(err, services.ErrAuthUnavailable):
		return "unavailable", http.StatusServiceUnavailable, "Shopify OAuth is not configured"
	default:
		return "internal", http.StatusInternalServerError, "Failed to complete install"
	}
}
