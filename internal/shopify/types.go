// Package shopify provides a minimal Shopify Admin REST client and the
// OAuth helpers used to install the app on a shop.
package shopify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the subset of a Shopify order the relay reads.
type Order struct {
	ID         int64           `json:"id"`
	Email      string          `json:"email"`
	Customer   *Customer       `json:"customer"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Note       string          `json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Tags       string          `json:"tags"`
	LineItems  []LineItem      `json:"line_items"`
}

type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type LineItem struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	VariantTitle string     `json:"variant_title"`
	Quantity     int        `json:"quantity"`
	Properties   []Property `json:"properties"`
}

// Property is a custom key/value attached to a line item at checkout.
// Shopify usually sends string values but does not guarantee it.
type Property struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ValueString renders the property value for display.
func (p Property) ValueString() string {
	switch v := p.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type orderResponse struct {
	Order Order `json:"order"`
}

type orderTagsUpdate struct {
	Order struct {
		ID   int64  `json:"id"`
		Tags string `json:"tags"`
	} `json:"order"`
}
