package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gitshopapp/orderrelay/internal/orders"
	"github.com/gitshopapp/orderrelay/internal/services"
)

func sampleResult() orders.Result {
	return orders.Result{
		Orders: []orders.Order{{ID: 1, CustomerName: "Ada", ProductIDs: []string{"10", "10-1"}}},
		LineItems: []orders.LineItem{
			{ID: "10", OrderID: 1, ProductName: "Shirt", Option1: "Size", Option2: "Color", Custom: "-"},
			{ID: "10-1", OrderID: 1, ProductName: "Shirt", Option1: "Size", Option2: "Color", Custom: "-"},
		},
	}
}

func TestOrders_ReturnsNormalizedLists(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, Dependencies{OrderService: fakeLister{result: sampleResult()}})
	rec := httptest.NewRecorder()
	h.Orders(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %s", got)
	}

	var body struct {
		OrderList   []map[string]any `json:"orderList"`
		ProductList []map[string]any `json:"productList"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.OrderList) != 1 || len(body.ProductList) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.ProductList[1]["id"] != "10-1" || body.ProductList[1]["orderId"] != float64(1) {
		t.Fatalf("unexpected line item: %v", body.ProductList[1])
	}
}

func TestOrders_EmptyResultEncodesEmptyLists(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, Dependencies{})
	rec := httptest.NewRecorder()
	h.Orders(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"orderList":[],"productList":[]}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestOrders_Embed(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, Dependencies{OrderService: fakeLister{result: sampleResult()}})
	rec := httptest.NewRecorder()
	h.Orders(rec, httptest.NewRequest(http.MethodGet, "/orders?embed=true", nil))

	var body []struct {
		ID       int64            `json:"id"`
		Products []map[string]any `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 || body[0].ID != 1 || len(body[0].Products) != 2 {
		t.Fatalf("unexpected embedded body: %+v", body)
	}
}

func TestCompleteOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		completer   *fakeCompleter
		wantStatus  int
		wantMessage string
		wantIDs     []int64
	}{
		{
			name:        "success",
			body:        `{"orderIds":[1, "2", 3]}`,
			completer:   &fakeCompleter{},
			wantStatus:  http.StatusOK,
			wantMessage: "Orders marked complete",
			wantIDs:     []int64{1, 2, 3},
		},
		{
			name:        "partial failure",
			body:        `{"orderIds":[1,2,3]}`,
			completer:   &fakeCompleter{err: services.ErrPartialBatchFailure},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to mark one or more orders complete",
			wantIDs:     []int64{1, 2, 3},
		},
		{
			name:       "empty list",
			body:       `{"orderIds":[]}`,
			completer:  &fakeCompleter{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing field",
			body:       `{}`,
			completer:  &fakeCompleter{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"orderIds":`,
			completer:  &fakeCompleter{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non numeric id",
			body:       `{"orderIds":["abc"]}`,
			completer:  &fakeCompleter{},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandlers(t, Dependencies{FulfillmentService: tt.completer})
			req := httptest.NewRequest(http.MethodPost, "/completeOrders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.CompleteOrders(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tt.wantStatus)
			}
			if !reflect.DeepEqual(tt.completer.got, tt.wantIDs) {
				t.Fatalf("unexpected ids passed on: got=%v want=%v", tt.completer.got, tt.wantIDs)
			}
			if tt.wantMessage == "" {
				return
			}
			var body messageResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Message != tt.wantMessage {
				t.Fatalf("unexpected message: got=%q want=%q", body.Message, tt.wantMessage)
			}
		})
	}
}
