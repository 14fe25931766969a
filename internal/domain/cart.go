package domain

// CartItem is one line a visitor intends to buy. Name, ImageURL and Price
// are denormalized snapshots captured when the item was added; under the
// default pricing policy they are not refreshed when the catalog changes.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"productName"`
	ImageURL  string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Selected  bool   `json:"selected"`
}
