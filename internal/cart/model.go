package cart

// Line is one product entry in a cart. Category and Price are snapshotted
// when the line is first created, so paid carts reflect the catalog state at
// purchase time.
type Line struct {
	Model    string  `json:"model"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Cart struct {
	ID          int64   `json:"-"`
	Customer    string  `json:"customer"`
	Paid        bool    `json:"paid"`
	PaymentDate *string `json:"paymentDate"`
	Total       float64 `json:"total"`
	Products    []Line  `json:"products"`
}

// emptyCart is what a customer without an open cart sees: never nil, never
// an error.
func emptyCart(customer string) Cart {
	return Cart{Customer: customer, Products: []Line{}}
}
