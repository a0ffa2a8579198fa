package models

// Step is a checkout stage. Successful submission exits the flow rather
// than being a fourth step.
type Step string

const (
	StepAddress  Step = "address"
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
)

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"`
}

type ShippingMethod struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	EstimatedDays int     `json:"estimated_days"`
}

// PaymentInput is held in memory only for the duration of the checkout.
// It is never persisted.
type PaymentInput struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holder_name"`
}

// Order is the submission payload sent to the remote commerce API.
type Order struct {
	Cart           []CartLine     `json:"cart"`
	Total          float64        `json:"total"`
	Address        Address        `json:"address"`
	ShippingMethod ShippingMethod `json:"shipping_method"`
}

type OrderReceipt struct {
	ID string `json:"id"`
}
