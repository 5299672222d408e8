package pricing

// StoredLine is a cart line as persisted on a client query record. AddonPrice is the
// catalog addon price and is recorded whether or not the addon was selected.
type StoredLine struct {
	BasePrice  float64
	AddonPrice float64
	Quantity   int
}

// AdminTotal is the figure the admin panel shows for a client query.
type AdminTotal struct {
	CartTotal float64 `json:"cart_total"`
	Subtotal  float64 `json:"subtotal"`
	Total     float64 `json:"total"`
	Tax       float64 `json:"tax"`
}

// RecomputeAdminTotal reproduces the admin panel arithmetic: each line counts its
// addon price regardless of selection, fees are added before tax, and the whole
// subtotal is taxed. The displayed tax is then backed out of the total. This diverges
// from Compute whenever an unselected addon has a price or fees are non-zero.
func RecomputeAdminTotal(lines []StoredLine, rentalDays int, deliveryFee, collectionFee, taxRate float64) AdminTotal {
	var cart float64
	for _, l := range lines {
		cart += (l.BasePrice + l.AddonPrice) * float64(l.Quantity) * float64(rentalDays)
	}
	subtotal := cart + deliveryFee + collectionFee
	total := subtotal + subtotal*taxRate
	return AdminTotal{
		CartTotal: cart,
		Subtotal:  subtotal,
		Total:     total,
		Tax:       ApproximateTaxFromTotal(total, taxRate),
	}
}
