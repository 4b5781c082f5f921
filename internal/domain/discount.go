package domain

import (
	"fmt"
	"strconv"
)

// FormatDiscount renders a discount the way members see it on their receipt.
func FormatDiscount(value float64, kind string) string {
	if kind == DiscountPercentage {
		return strconv.FormatFloat(value, 'f', -1, 64) + "% off"
	}
	return fmt.Sprintf("$%.2f off", value)
}
