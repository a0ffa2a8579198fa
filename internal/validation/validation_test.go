package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/validation"
)

func TestFormatCardNumber(t *testing.T) {
	assert.Equal(t, "4111 1111 1111 1111", validation.FormatCardNumber("4111111111111111"))
	assert.Equal(t, "4111 1111 1111 1111", validation.FormatCardNumber("4111-1111-1111-1111"))
	assert.Equal(t, "4111 1111 11", validation.FormatCardNumber("4111 1111 11"))
	assert.Equal(t, "", validation.FormatCardNumber("no digits here"))

	t.Run("caps at 16 significant digits", func(t *testing.T) {
		assert.Equal(t, "4111 1111 1111 1111", validation.FormatCardNumber("41111111111111119999"))
	})
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "12/27", validation.FormatExpiry("1227"))
	assert.Equal(t, "12/27", validation.FormatExpiry("12/27"))
	assert.Equal(t, "12", validation.FormatExpiry("12"))
	assert.Equal(t, "1", validation.FormatExpiry("1"))
	assert.Equal(t, "", validation.FormatExpiry(""))

	t.Run("caps at 4 significant digits", func(t *testing.T) {
		assert.Equal(t, "12/27", validation.FormatExpiry("122789"))
	})
}

func TestFilters(t *testing.T) {
	assert.Equal(t, "123", validation.FilterCVV("12345"))
	assert.Equal(t, "123", validation.FilterCVV("1a2b3c"))
	assert.Equal(t, "75011", validation.FilterPostalCode("75011-99"))
	assert.Equal(t, "", validation.FilterPostalCode("abc"))
}

func TestValidCardNumber(t *testing.T) {
	t.Run("14 digits rejected, appending 2 accepted", func(t *testing.T) {
		assert.False(t, validation.ValidCardNumber("4111 1111 1111 11"))
		assert.True(t, validation.ValidCardNumber("4111 1111 1111 1111"))
	})

	assert.True(t, validation.ValidCardNumber("4111111111111111"))
	assert.False(t, validation.ValidCardNumber("41111111111111112"))
	assert.False(t, validation.ValidCardNumber(""))
}

func TestValidExpiry(t *testing.T) {
	assert.True(t, validation.ValidExpiry("12/27"))
	assert.True(t, validation.ValidExpiry("01/30"))
	assert.False(t, validation.ValidExpiry("1227"))
	assert.False(t, validation.ValidExpiry("1/27"))
	assert.False(t, validation.ValidExpiry("12-27"))
	assert.False(t, validation.ValidExpiry(""))
}

func TestValidCVVAndPostal(t *testing.T) {
	assert.True(t, validation.ValidCVV("123"))
	assert.False(t, validation.ValidCVV("12"))
	assert.False(t, validation.ValidCVV("12a"))
	assert.True(t, validation.ValidPostalCode("75011"))
	assert.False(t, validation.ValidPostalCode("7501"))
}

func TestAddressValidation(t *testing.T) {
	v := validation.New()

	t.Run("valid address passes", func(t *testing.T) {
		fields := v.Address(&models.Address{
			Street:     "12 rue de la Paix",
			City:       "Paris",
			PostalCode: "75002",
		})

		assert.Empty(t, fields)
	})

	t.Run("missing fields reported per field", func(t *testing.T) {
		fields := v.Address(&models.Address{City: "Paris"})

		assert.Contains(t, fields, "street")
		assert.Contains(t, fields, "postal_code")
		assert.NotContains(t, fields, "city")
	})
}

func TestPaymentValidation(t *testing.T) {
	v := validation.New()

	valid := models.PaymentInput{
		CardNumber: "4111 1111 1111 1111",
		Expiry:     "12/27",
		CVV:        "123",
		HolderName: "JEAN DUPONT",
	}

	t.Run("valid input passes", func(t *testing.T) {
		assert.Empty(t, v.Payment(&valid))
	})

	t.Run("each failure is field-scoped", func(t *testing.T) {
		input := models.PaymentInput{
			CardNumber: "4111 1111 1111",
			Expiry:     "1227",
			CVV:        "12",
			HolderName: "JD",
		}

		fields := v.Payment(&input)
		assert.Len(t, fields, 4)
		assert.Contains(t, fields, "card_number")
		assert.Contains(t, fields, "expiry")
		assert.Contains(t, fields, "cvv")
		assert.Contains(t, fields, "holder_name")
	})

	t.Run("never panics on arbitrary input", func(t *testing.T) {
		assert.NotPanics(t, func() {
			v.Payment(&models.PaymentInput{CardNumber: "\x00\xff", Expiry: "/////"})
		})
	})
}
