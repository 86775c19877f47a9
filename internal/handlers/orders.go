package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gitshopapp/orderrelay/internal/orders"
)

const (
	completeOrdersOK     = "Orders marked complete"
	completeOrdersFailed = "Failed to mark one or more orders complete"
)

// Orders returns the normalized open orders. It always answers 200; an
// upstream failure yields empty lists.
func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request) {
	result := h.orderService.ListOpenOrders(r.Context())

	if embed, _ := strconv.ParseBool(r.URL.Query().Get("embed")); embed {
		h.writeJSON(w, r, http.StatusOK, orders.Embed(result))
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}

// OrderID accepts an order id sent either as a JSON number or a string.
type OrderID int64

func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
	}

	parsed, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil || parsed <= 0 {
		return fmt.Errorf("invalid order id %s", data)
	}
	*id = OrderID(parsed)
	return nil
}

type completeOrdersRequest struct {
	OrderIDs []OrderID `json:"orderIds"`
}

// CompleteOrders tags every requested order as fulfilled.
func (h *Handlers) CompleteOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req completeOrdersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid complete orders body", "error", err)
		h.writeMessage(w, r, http.StatusBadRequest, "Request body must be {\"orderIds\": [...]}")
		return
	}
	if len(req.OrderIDs) == 0 {
		h.writeMessage(w, r, http.StatusBadRequest, "orderIds must not be empty")
		return
	}

	ids := make([]int64, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		ids = append(ids, int64(id))
	}

	result, err := h.fulfillmentService.CompleteOrders(ctx, ids)
	if err != nil {
		logger.Error("failed to complete orders", "error", err, "attempted", result.Attempted, "failed", len(result.Failed))
		h.writeMessage(w, r, http.StatusInternalServerError, completeOrdersFailed)
		return
	}

	h.writeMessage(w, r, http.StatusOK, completeOrdersOK)
}
