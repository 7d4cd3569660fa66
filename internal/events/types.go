package events

// Catalog change notifications, published after the store accepted the
// change.

type ProductAdded struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

type ProductUpdated struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

type ProductDeleted struct {
	ProductID string `json:"product_id"`
}
