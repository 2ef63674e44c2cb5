package application

import (
	"fmt"

	"github.com/govalues/decimal"

	"go-orders/internal/orders/domain"
)

// Pricing computes order totals server-side; client-supplied totals are never trusted
type Pricing struct {
	Currency              string
	TaxRate               decimal.Decimal
	ShippingFee           int64
	FreeShippingThreshold int64
}

// NewPricing parses the tax rate (e.g. "0.18") and validates the fees
func NewPricing(currency, taxRate string, shippingFee, freeShippingThreshold int64) (Pricing, error) {
	rate, err := decimal.Parse(taxRate)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid tax rate %q: %w", taxRate, err)
	}
	if rate.IsNeg() {
		return Pricing{}, fmt.Errorf("tax rate cannot be negative: %s", taxRate)
	}
	if shippingFee < 0 || freeShippingThreshold < 0 {
		return Pricing{}, fmt.Errorf("shipping fee and threshold cannot be negative")
	}
	return Pricing{
		Currency:              currency,
		TaxRate:               rate,
		ShippingFee:           shippingFee,
		FreeShippingThreshold: freeShippingThreshold,
	}, nil
}

// Quote returns subtotal, tax, shipping and total for items in minor units.
// Tax is rounded half to even on the whole minor unit. Sums that leave int64 yield ErrAmountOutOfRange.
func (p Pricing) Quote(items []domain.LineItem) (domain.Amounts, error) {
	var subtotal int64
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return domain.Amounts{}, err
		}
		if subtotal, err = addAmounts(subtotal, line); err != nil {
			return domain.Amounts{}, err
		}
	}

	tax, err := p.tax(subtotal)
	if err != nil {
		return domain.Amounts{}, domain.ErrAmountOutOfRange
	}

	shipping := p.ShippingFee
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		shipping = 0
	}

	total, err := addAmounts(subtotal, tax, shipping)
	if err != nil {
		return domain.Amounts{}, err
	}

	return domain.Amounts{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
		Currency: p.Currency,
	}, nil
}

// addAmounts sums minor-unit amounts without wrapping
func addAmounts(amounts ...int64) (int64, error) {
	sum := decimal.Zero
	for _, a := range amounts {
		d, err := decimal.New(a, 0)
		if err != nil {
			return 0, domain.ErrAmountOutOfRange
		}
		if sum, err = sum.Add(d); err != nil {
			return 0, domain.ErrAmountOutOfRange
		}
	}
	whole, _, ok := sum.Int64(0)
	if !ok {
		return 0, domain.ErrAmountOutOfRange
	}
	return whole, nil
}

func (p Pricing) tax(subtotal int64) (int64, error) {
	if p.TaxRate.IsZero() || subtotal <= 0 {
		return 0, nil
	}

	base, err := decimal.New(subtotal, 0)
	if err != nil {
		return 0, err
	}
	tax, err := base.Mul(p.TaxRate)
	if err != nil {
		return 0, err
	}

	whole, _, ok := tax.Round(0).Int64(0)
	if !ok {
		return 0, fmt.Errorf("tax %s overflows int64", tax)
	}
	return whole, nil
}
