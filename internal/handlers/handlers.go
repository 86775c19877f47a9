package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gitshopapp/orderrelay/internal/config"
	"github.com/gitshopapp/orderrelay/internal/logging"
	"github.com/gitshopapp/orderrelay/internal/orders"
	"github.com/gitshopapp/orderrelay/internal/services"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

type Installer interface {
	StartInstall(shop string) (services.StartInstallResult, error)
	CompleteInstall(ctx context.Context, input services.CompleteInstallInput) (string, error)
}

type OrderLister interface {
	ListOpenOrders(ctx context.Context) orders.Result
}

type OrderCompleter interface {
	CompleteOrders(ctx context.Context, orderIDs []int64) (services.BatchResult, error)
}

// ClientStatus reports the shop of the active Shopify client, if any.
type ClientStatus interface {
	Active() (string, bool)
}

// Handlers provides HTTP request handlers for the order relay.
type Handlers struct {
	config             *config.Config
	authService        Installer
	orderService       OrderLister
	fulfillmentService OrderCompleter
	clientStatus       ClientStatus
	logger             *slog.Logger
}

type Dependencies struct {
	Config             *config.Config
	AuthService        Installer
	OrderService       OrderLister
	FulfillmentService OrderCompleter
	ClientStatus       ClientStatus
	Logger             *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.FulfillmentService == nil {
		return nil, fmt.Errorf("handlers dependencies: fulfillmentService is required")
	}
	if deps.ClientStatus == nil {
		return nil, fmt.Errorf("handlers dependencies: clientStatus is required")
	}

	return &Handlers{
		config:             deps.Config,
		authService:        deps.AuthService,
		orderService:       deps.OrderService,
		fulfillmentService: deps.FulfillmentService,
		clientStatus:       deps.ClientStatus,
		logger:             logger.With("component", "handlers"),
	}, nil
}

type healthResponse struct {
	Status        string `json:"status"`
	ShopConnected bool   `json:"shopConnected"`
	Shop          string `json:"shop,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	shop, connected := h.clientStatus.Active()
	h.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:        "healthy",
		ShopConnected: connected,
		Shop:          shop,
	})
}

// Root sends visitors to the fulfillment front end.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.config.FrontendAddress, http.StatusFound)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, messageResponse{Message: message})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// SecureCookiesFromConfig reports whether cookies should carry the Secure
// flag, based on the public callback address.
func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}

	forwarding := strings.TrimSpace(cfg.ForwardingAddress)
	if forwarding != "" {
		if parsed, err := url.Parse(forwarding); err == nil {
			return strings.EqualFold(parsed.Scheme, "https")
		}
	}

	return cfg.Port == "443" || cfg.Port == "8443"
}
