package domain

import "github.com/shopspring/decimal"

// TaxRate applied to the cart subtotal
var TaxRate = decimal.RequireFromString("0.08")

// MaxLineQuantity caps a single add and the running quantity of one cart line
const MaxLineQuantity = 999

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is an immutable catalog entry
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Barcode  string          `json:"barcode"`
	ImageURL *string         `json:"imageUrl"`
}

// CartLine is one (user, product, quantity) record.
// At most one line exists per (UserID, ProductID).
type CartLine struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"userId"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CartLineWithProduct is a cart line joined with its catalog product
type CartLineWithProduct struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Product  Product         `json:"product"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartSummary is the priced view of a user's cart
type CartSummary struct {
	Items      []CartLineWithProduct `json:"items"`
	TotalItems int                   `json:"totalItems"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	Tax        decimal.Decimal       `json:"tax"`
	Total      decimal.Decimal       `json:"total"`
}

// NewCartSummary prices the given lines. Money is rounded to cents.
func NewCartSummary(items []CartLineWithProduct) *CartSummary {
	summary := &CartSummary{
		Items:    items,
		Subtotal: decimal.Zero,
	}
	if summary.Items == nil {
		summary.Items = []CartLineWithProduct{}
	}

	for i := range summary.Items {
		line := &summary.Items[i]
		line.Subtotal = line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Subtotal = summary.Subtotal.Add(line.Subtotal)
		summary.TotalItems += line.Quantity
	}

	summary.Tax = summary.Subtotal.Mul(TaxRate).Round(2)
	summary.Total = summary.Subtotal.Add(summary.Tax).Round(2)
	return summary
}
