// Package pricing holds the checkout price list.
package pricing

const (
	// ElementaryCents covers kindergarten through grade 6.
	ElementaryCents int64 = 9900
	// SecondaryCents covers grade 7 and up.
	SecondaryCents int64 = 12000

	lastElementaryGrade = 6
)

// CheckoutAmount returns the price in cents for a test at the given grade level (0 = kindergarten).
func CheckoutAmount(gradeLevel int) int64 {
	if gradeLevel <= lastElementaryGrade {
		return ElementaryCents
	}
	return SecondaryCents
}
