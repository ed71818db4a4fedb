package core

import (
	"github.com/stripe/stripe-go/v79"
)

// freeShippingCushionThreshold is the minimum cushion quantity a reseller
// order needs before shipping is waived.
const freeShippingCushionThreshold = 6

// QualifiesForFreeShipping applies the storefront's only shipping discount:
// resellers ordering at least six cushions ship free. Products whose metadata
// fails validation simply don't count toward the threshold.
func QualifiesForFreeShipping(customer *stripe.Customer, lines []ProductLine) bool {
	if customer == nil || customer.Deleted {
		return false
	}
	cm, err := ValidateCustomerMetadata(customer.ID, customer.Metadata)
	if err != nil || cm.Role != RoleReseller {
		return false
	}

	var cushions int64
	for _, line := range lines {
		md, err := ValidateProductMetadata(line.Product.ID, line.Product.Metadata)
		if err != nil {
			continue
		}
		if md.Category == CategoryCushion {
			cushions += line.Quantity
		}
	}
	return cushions >= freeShippingCushionThreshold
}
