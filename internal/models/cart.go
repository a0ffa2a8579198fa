package models

// CartLine is one product instance in the cart. UnitPrice is captured at
// add time and never re-fetched: the cart shows the price the user saw
// when adding, not a live price.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	ImageRef  string  `json:"image,omitempty"`
}

func NewCartLine(p Product) CartLine {
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageRef,
	}
}
