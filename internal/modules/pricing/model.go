// README: Pricing inputs and the derived breakdown for a rental quote.
package pricing

import "errors"

// DefaultTaxRate is the sales tax applied to the product subtotal.
const DefaultTaxRate = 0.0725

var ErrInvalidInput = errors.New("invalid pricing input")

// Item is one cart line as pricing sees it. AddonPrice is the catalog price of the
// product's addon and only counts when AddonSelected is set.
type Item struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	BasePrice     float64 `json:"base_price"`
	AddonName     string  `json:"addon_name,omitempty"`
	AddonPrice    float64 `json:"addon_price"`
	AddonSelected bool    `json:"addon_selected"`
	Quantity      int     `json:"quantity"`
}

type Request struct {
	Items         []Item
	RentalDays    int
	DeliveryFee   float64
	CollectionFee float64
	TaxRate       float64
}

type Line struct {
	ProductID     string  `json:"product_id" firestore:"productId"`
	Name          string  `json:"name" firestore:"productName"`
	BasePrice     float64 `json:"base_price" firestore:"basePrice"`
	AddonName     string  `json:"addon_name,omitempty" firestore:"addonName"`
	AddonPrice    float64 `json:"addon_price" firestore:"addonPrice"`
	AddonSelected bool    `json:"addon_selected" firestore:"addonSelected"`
	UnitPrice     float64 `json:"unit_price" firestore:"unitPrice"`
	Quantity      int     `json:"quantity" firestore:"quantity"`
	LineTotal     float64 `json:"line_total" firestore:"lineTotal"`
}

// Breakdown is derived from a Request and never edited directly.
type Breakdown struct {
	Lines           []Line  `json:"lines" firestore:"lines"`
	RentalDays      int     `json:"rental_days" firestore:"rentalDays"`
	TaxRate         float64 `json:"tax_rate" firestore:"taxRate"`
	Subtotal        float64 `json:"subtotal" firestore:"subtotal"`
	Tax             float64 `json:"tax" firestore:"tax"`
	SubtotalWithTax float64 `json:"subtotal_with_tax" firestore:"subtotalWithTax"`
	DeliveryFee     float64 `json:"delivery_fee" firestore:"deliveryFee"`
	CollectionFee   float64 `json:"collection_fee" firestore:"collectionFee"`
	Total           float64 `json:"total" firestore:"total"`
}
