package catalog

// Category is the closed set of product categories.
type Category string

const (
	CategorySmartphone Category = "Smartphone"
	CategoryLaptop     Category = "Laptop"
	CategoryAppliance  Category = "Appliance"
)

// ParseCategory maps a string onto a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategorySmartphone, CategoryLaptop, CategoryAppliance:
		return Category(s), true
	}
	return "", false
}

type Product struct {
	Model        string   `json:"model"`
	Category     Category `json:"category"`
	ArrivalDate  string   `json:"arrivalDate"`
	SellingPrice float64  `json:"sellingPrice"`
	Quantity     int      `json:"quantity"`
	Details      string   `json:"details"`
}
