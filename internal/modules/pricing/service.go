// README: Pricing rules: distance fee, forward quote computation and the admin tax backout.
package pricing

import "fmt"

const (
	minimumFee            = 10.0
	longDistanceThreshold = 11.0
	shortDistanceRate     = 2.0
	longDistanceRate      = 1.6
)

// DistanceFee is the one-way fee for a delivery or collection trip of the given
// miles. Trips above 11 miles use the lower per-mile rate; every trip costs at least 10.
// The rate switch means 11.5 miles costs less than 11.
func DistanceFee(miles float64) float64 {
	rate := shortDistanceRate
	if miles > longDistanceThreshold {
		rate = longDistanceRate
	}
	fee := miles * rate
	if fee < minimumFee {
		return minimumFee
	}
	return fee
}

// Fees returns the delivery and collection fee for a method. Pickup is free both ways.
func Fees(delivery bool, miles float64) (deliveryFee, collectionFee float64) {
	if !delivery {
		return 0, 0
	}
	return DistanceFee(miles), DistanceFee(miles)
}

// Compute prices a cart. Items with quantity 0 are dropped. Tax applies to the
// product subtotal only, never to fees.
func Compute(req Request) (Breakdown, error) {
	if err := validate(req); err != nil {
		return Breakdown{}, err
	}

	out := Breakdown{
		RentalDays:    req.RentalDays,
		TaxRate:       req.TaxRate,
		DeliveryFee:   req.DeliveryFee,
		CollectionFee: req.CollectionFee,
		Lines:         make([]Line, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		if it.Quantity == 0 {
			continue
		}
		unit := it.BasePrice
		if it.AddonSelected {
			unit += it.AddonPrice
		}
		line := unit * float64(it.Quantity) * float64(req.RentalDays)
		out.Lines = append(out.Lines, Line{
			ProductID:     it.ProductID,
			Name:          it.Name,
			BasePrice:     it.BasePrice,
			AddonName:     it.AddonName,
			AddonPrice:    it.AddonPrice,
			AddonSelected: it.AddonSelected,
			UnitPrice:     unit,
			Quantity:      it.Quantity,
			LineTotal:     line,
		})
		out.Subtotal += line
	}
	out.Tax = out.Subtotal * req.TaxRate
	out.SubtotalWithTax = out.Subtotal + out.Tax
	out.Total = out.SubtotalWithTax + out.DeliveryFee + out.CollectionFee
	return out, nil
}

func validate(req Request) error {
	if req.RentalDays < 1 {
		return fmt.Errorf("%w: rental days must be at least 1", ErrInvalidInput)
	}
	if req.TaxRate < 0 || req.TaxRate >= 1 {
		return fmt.Errorf("%w: tax rate %v", ErrInvalidInput, req.TaxRate)
	}
	if req.DeliveryFee < 0 || req.CollectionFee < 0 {
		return fmt.Errorf("%w: negative fee", ErrInvalidInput)
	}
	for _, it := range req.Items {
		if it.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity for %s", ErrInvalidInput, it.ProductID)
		}
		if it.BasePrice < 0 || it.AddonPrice < 0 {
			return fmt.Errorf("%w: negative price for %s", ErrInvalidInput, it.ProductID)
		}
	}
	return nil
}

// ApproximateTaxFromTotal backs the tax portion out of a tax-inclusive total. It is
// only exact when nothing untaxed is inside total; the admin view applies it to totals
// that include fees.
func ApproximateTaxFromTotal(total, rate float64) float64 {
	return total - total/(1+rate)
}
