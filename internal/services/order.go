package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gitshopapp/orderrelay/internal/logging"
	"github.com/gitshopapp/orderrelay/internal/orders"
	"github.com/gitshopapp/orderrelay/internal/shopify"
)

// ClientSource yields the Shopify client requests should use.
type ClientSource interface {
	Current(ctx context.Context) (*shopify.Client, error)
}

type OrderService struct {
	clients    ClientSource
	dateSource string
	logger     *slog.Logger
}

func NewOrderService(clients ClientSource, dateSource string, logger *slog.Logger) (*OrderService, error) {
	if clients == nil {
		return nil, fmt.Errorf("order service client source is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &OrderService{
		clients:    clients,
		dateSource: dateSource,
		logger:     logger,
	}, nil
}

// ListOpenOrders fetches open orders and normalizes them. It never fails:
// a missing client or any vendor error yields an empty result.
func (s *OrderService) ListOpenOrders(ctx context.Context) orders.Result {
	logger := logging.FromContext(ctx, s.logger)

	client, err := s.clients.Current(ctx)
	if err != nil {
		logger.Warn("no shopify client available for order listing", "error", err)
		return orders.Empty()
	}

	raw, err := client.ListOrders(ctx, shopify.ListOrdersOptions{Status: "open"})
	if err != nil {
		logger.Warn("failed to fetch orders from shopify", "shop", client.Shop(), "error", err)
		return orders.Empty()
	}

	result := orders.Normalize(raw, orders.Options{DateSource: s.dateSource})
	logger.Debug("orders normalized", "shop", client.Shop(), "orders", len(result.Orders), "line_items", len(result.LineItems))
	return result
}
