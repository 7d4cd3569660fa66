package domain

// CheckoutAction is the only web app action the bot relays.
const CheckoutAction = "checkout"

// OrderItem is one line of a checkout payload.
type OrderItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// WebAppPayload is the JSON document posted by the storefront through
// Telegram's web app data channel. Orders are relayed, never stored.
type WebAppPayload struct {
	Action string      `json:"action"`
	Items  []OrderItem `json:"items"`
	Total  float64     `json:"total"`
}
