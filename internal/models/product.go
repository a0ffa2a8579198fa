package models

// Product is the catalog entry as served by the remote commerce API.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock"`
	ImageRef    string  `json:"image,omitempty"`
}

// ProductInput is the admin create/update payload, passed through to the
// remote API without local business rules.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageRef    string  `json:"image,omitempty"`
}
