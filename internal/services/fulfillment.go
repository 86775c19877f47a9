package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/gitshopapp/orderrelay/internal/logging"
	"github.com/gitshopapp/orderrelay/internal/observability"
)

var ErrPartialBatchFailure = errors.New("one or more orders could not be tagged")

type BatchResult struct {
	Attempted int
	Tagged    int
	Skipped   int
	Failed    []int64
}

type FulfillmentService struct {
	clients ClientSource
	tag     string
	logger  *slog.Logger
}

func NewFulfillmentService(clients ClientSource, tag string, logger *slog.Logger) (*FulfillmentService, error) {
	if clients == nil {
		return nil, fmt.Errorf("fulfillment service client source is required")
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("fulfillment service tag is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &FulfillmentService{
		clients: clients,
		tag:     tag,
		logger:  logger,
	}, nil
}

// CompleteOrders tags each order in turn. Failures are recorded and the
// loop continues; the batch reports ErrPartialBatchFailure if any failed.
func (s *FulfillmentService) CompleteOrders(ctx context.Context, orderIDs []int64) (BatchResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.fulfillment.complete_orders",
		sentry.WithOpName("service.fulfillment"),
		sentry.WithDescription("CompleteOrders"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := logging.FromContext(ctx, s.logger)
	meter := observability.MeterFromContext(ctx)
	result := BatchResult{}

	client, err := s.clients.Current(ctx)
	if err != nil {
		return result, err
	}

	for _, orderID := range orderIDs {
		result.Attempted++

		existing, err := client.GetOrderTags(ctx, orderID)
		if err != nil {
			logger.Error("failed to read order tags", "order_id", orderID, "error", err)
			result.Failed = append(result.Failed, orderID)
			continue
		}

		merged, changed := MergeTag(existing, s.tag)
		if !changed {
			result.Skipped++
			continue
		}

		if err := client.UpdateOrderTags(ctx, orderID, merged); err != nil {
			logger.Error("failed to tag order", "order_id", orderID, "tag", s.tag, "error", err)
			result.Failed = append(result.Failed, orderID)
			continue
		}
		result.Tagged++
	}

	attrs := sentry.WithAttributes(attribute.String("shopify.shop", client.Shop()))
	meter.Count("orders.complete.tagged", int64(result.Tagged), attrs)
	meter.Count("orders.complete.failed", int64(len(result.Failed)), attrs)

	if len(result.Failed) > 0 {
		return result, ErrPartialBatchFailure
	}
	logger.Info("orders marked complete", "count", result.Attempted, "tagged", result.Tagged, "skipped", result.Skipped)
	return result, nil
}

// MergeTag adds tag to a Shopify comma-separated tag string. It reports
// false when the tag is already present (case-insensitive, as Shopify
// treats tags).
func MergeTag(existing, tag string) (string, bool) {
	parts := strings.Split(existing, ",")
	tags := make([]string, 0, len(parts)+1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, tag) {
			return existing, false
		}
		tags = append(tags, part)
	}
	tags = append(tags, tag)
	return strings.Join(tags, ", "), true
}
