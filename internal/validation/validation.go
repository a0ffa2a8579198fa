// Package validation contains the pure formatters, filters and
// predicates used by the payment and address forms. Everything here is
// side-effect free and never panics; validators report problems as
// per-field messages.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mlefevre/storefront/internal/models"
)

const (
	cardDigits   = 16
	cvvDigits    = 3
	postalDigits = 5
	expiryDigits = 4
)

// Digits strips every non-digit rune and caps the result at max
// significant digits. max <= 0 means no cap.
func Digits(s string, max int) string {
	var b strings.Builder

	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}

		if max > 0 && b.Len() == max {
			break
		}

		b.WriteRune(r)
	}

	return b.String()
}

// FormatCardNumber groups the digits into blocks of four, capped at 16
// significant digits: "4111111111111111" -> "4111 1111 1111 1111".
func FormatCardNumber(s string) string {
	digits := Digits(s, cardDigits)

	var parts []string
	for i := 0; i < len(digits); i += 4 {
		end := min(i+4, len(digits))
		parts = append(parts, digits[i:end])
	}

	return strings.Join(parts, " ")
}

// FormatExpiry inserts the MM/YY separator after the second digit,
// capped at four significant digits: "1227" -> "12/27".
func FormatExpiry(s string) string {
	digits := Digits(s, expiryDigits)

	if len(digits) <= 2 {
		return digits
	}

	return digits[:2] + "/" + digits[2:]
}

// FilterCVV keeps at most three digits.
func FilterCVV(s string) string {
	return Digits(s, cvvDigits)
}

// FilterPostalCode keeps at most five digits.
func FilterPostalCode(s string) string {
	return Digits(s, postalDigits)
}

// ValidCardNumber reports whether the value holds exactly 16 digits,
// ignoring formatting separators.
func ValidCardNumber(s string) bool {
	return len(Digits(s, 0)) == cardDigits
}

// ValidExpiry reports whether the value matches the two-digit-month /
// two-digit-year pattern "MM/YY".
func ValidExpiry(s string) bool {
	if len(s) != 5 || s[2] != '/' {
		return false
	}

	return Digits(s[:2], 0) == s[:2] && Digits(s[3:], 0) == s[3:]
}

// ValidCVV reports whether the value is exactly three digits.
func ValidCVV(s string) bool {
	return len(s) == cvvDigits && Digits(s, 0) == s
}

// ValidPostalCode reports whether the value is exactly five digits.
func ValidPostalCode(s string) bool {
	return len(s) == postalDigits && Digits(s, 0) == s
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Address returns per-field messages for the address step, empty when
// the address is valid. Street, city and postal code must be non-empty.
func (v *Validator) Address(a *models.Address) map[string]string {
	fields := map[string]string{}

	if err := v.validate.Struct(a); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fe := range validationErrs {
				fields[fieldName(fe.Field())] = "This field is required"
			}
		}
	}

	return fields
}

// Payment returns per-field messages for the payment step, empty when
// the input is valid.
func (v *Validator) Payment(p *models.PaymentInput) map[string]string {
	fields := map[string]string{}

	if !ValidCardNumber(p.CardNumber) {
		fields["card_number"] = "Card number must contain 16 digits"
	}

	if len(strings.TrimSpace(p.HolderName)) < 3 {
		fields["holder_name"] = "Name on card is required"
	}

	if !ValidExpiry(p.Expiry) {
		fields["expiry"] = "Required format: MM/YY"
	}

	if !ValidCVV(p.CVV) {
		fields["cvv"] = "CVV must contain 3 digits"
	}

	return fields
}

// Struct runs tag-based validation and reports whether it passed.
func (v *Validator) Struct(data any) error {
	return v.validate.Struct(data)
}

func fieldName(structField string) string {
	switch structField {
	case "Street":
		return "street"
	case "City":
		return "city"
	case "PostalCode":
		return "postal_code"
	case "Country":
		return "country"
	default:
		return strings.ToLower(structField)
	}
}
