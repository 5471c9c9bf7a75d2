package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutAmount(t *testing.T) {
	for grade := 0; grade <= 6; grade++ {
		assert.Equal(t, int64(9900), CheckoutAmount(grade), "grade %d", grade)
	}
	for grade := 7; grade <= 12; grade++ {
		assert.Equal(t, int64(12000), CheckoutAmount(grade), "grade %d", grade)
	}
}
