// Package orders reshapes Shopify orders into the flat structure the
// fulfillment UI renders.
package orders

import (
	"strconv"
	"strings"

	"github.com/gitshopapp/orderrelay/internal/shopify"
)

const (
	CustomerNotFound  = "CUSTOMER NOT FOUND"
	MissingCustom     = "-"
	OptionSize        = "Size"
	OptionColor       = "Color"
	variantSeparator  = " / "
	orderDateLayout   = "Jan 02"
	DateSourceCreated = "created"
	DateSourceUpdated = "updated"
)

// Order is one normalized order.
type Order struct {
	ID            int64    `json:"id"`
	CustomerName  string   `json:"customerName"`
	CustomerEmail string   `json:"customerEmail"`
	Amount        string   `json:"amount"`
	Note          string   `json:"note"`
	OrderDate     string   `json:"orderDate"`
	ProductIDs    []string `json:"productIds"`
	Tags          string   `json:"tags"`
	OrderComplete bool     `json:"orderComplete"`
	OrderPrinted  bool     `json:"orderPrinted"`
}

// EmbeddedOrder is an Order carrying its own line items.
type EmbeddedOrder struct {
	Order
	Products []LineItem `json:"products"`
}

// LineItem is one unit of a line item. A line item with quantity N yields N
// records, each with an id unique within the Result.
type LineItem struct {
	ID          string `json:"id"`
	OrderID     int64  `json:"orderId"`
	ProductName string `json:"productName"`
	Option1     string `json:"option1"`
	Option2     string `json:"option2"`
	Variant1    string `json:"variant1"`
	Variant2    string `json:"variant2"`
	Custom      string `json:"custom"`
	Complete    bool   `json:"complete"`
}

type Result struct {
	Orders    []Order    `json:"orderList"`
	LineItems []LineItem `json:"productList"`
}

// Empty returns a Result whose lists encode as [] rather than null.
func Empty() Result {
	return Result{Orders: []Order{}, LineItems: []LineItem{}}
}

type Options struct {
	// DateSource selects the timestamp orderDate is derived from:
	// DateSourceCreated (default) or DateSourceUpdated.
	DateSource string
}

// Normalize flattens orders in input order. Line items are expanded by
// quantity; repeated source ids are disambiguated as "<id>-<n>" with n the
// running occurrence count, so output is deterministic.
func Normalize(src []shopify.Order, opts Options) Result {
	result := Empty()
	ids := newIDAllocator()

	for _, order := range src {
		productIDs := []string{}

		for _, item := range order.LineItems {
			variant1, variant2 := splitVariant(item.VariantTitle)
			template := LineItem{
				OrderID:     order.ID,
				ProductName: item.Title,
				Option1:     OptionSize,
				Option2:     OptionColor,
				Variant1:    variant1,
				Variant2:    variant2,
				Custom:      customValue(item.Properties),
			}

			for i := 0; i < item.Quantity; i++ {
				record := template
				record.ID = ids.next(item.ID)
				result.LineItems = append(result.LineItems, record)
				productIDs = append(productIDs, record.ID)
			}
		}

		name, email := customerDisplay(order)
		result.Orders = append(result.Orders, Order{
			ID:            order.ID,
			CustomerName:  name,
			CustomerEmail: email,
			Amount:        order.TotalPrice.StringFixed(2),
			Note:          order.Note,
			OrderDate:     formatOrderDate(order, opts.DateSource),
			ProductIDs:    productIDs,
			Tags:          order.Tags,
		})
	}

	return result
}

// Embed returns the orders with each order's line items attached, for
// clients that want a single nested list.
func Embed(r Result) []EmbeddedOrder {
	byOrder := make(map[int64][]LineItem, len(r.Orders))
	for _, item := range r.LineItems {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	embedded := make([]EmbeddedOrder, 0, len(r.Orders))
	for _, order := range r.Orders {
		products := byOrder[order.ID]
		if products == nil {
			products = []LineItem{}
		}
		embedded = append(embedded, EmbeddedOrder{Order: order, Products: products})
	}
	return embedded
}

func splitVariant(title string) (string, string) {
	parts := strings.Split(title, variantSeparator)
	var first, second string
	if len(parts) >= 1 {
		first = parts[0]
	}
	if len(parts) >= 2 {
		second = parts[1]
	}
	return first, second
}

func customValue(props []shopify.Property) string {
	if len(props) == 0 {
		return MissingCustom
	}
	return props[0].ValueString()
}

func customerDisplay(order shopify.Order) (string, string) {
	if order.Customer == nil {
		return CustomerNotFound, CustomerNotFound
	}

	name := strings.TrimSpace(order.Customer.FirstName + " " + order.Customer.LastName)
	if name == "" {
		name = CustomerNotFound
	}

	email := strings.TrimSpace(order.Customer.Email)
	if email == "" {
		email = strings.TrimSpace(order.Email)
	}
	if email == "" {
		email = CustomerNotFound
	}
	return name, email
}

func formatOrderDate(order shopify.Order, source string) string {
	ts := order.CreatedAt
	if source == DateSourceUpdated {
		ts = order.UpdatedAt
	}
	if ts.IsZero() {
		return ""
	}
	return ts.Format(orderDateLayout)
}

type idAllocator struct {
	seen        map[string]struct{}
	occurrences map[int64]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{
		seen:        make(map[string]struct{}),
		occurrences: make(map[int64]int),
	}
}

func (a *idAllocator) next(source int64) string {
	id := strconv.FormatInt(source, 10)
	for {
		if _, taken := a.seen[id]; !taken {
			a.seen[id] = struct{}{}
			return id
		}
		a.occurrences[source]++
		id = strconv.FormatInt(source, 10) + "-" + strconv.Itoa(a.occurrences[source])
	}
}
