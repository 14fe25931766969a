package domain

import "time"

type Product struct {
	ID            string        `json:"productId"`
	Name          string        `json:"productName"`
	Description   string        `json:"description,omitempty"`
	ImageURL      string        `json:"image,omitempty"`
	SubCategoryID string        `json:"subCategoryId"`
	PublisherID   string        `json:"publisherId,omitempty"`
	CurrentPrice  *PriceHistory `json:"currentPrice,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// PriceHistory is an append-only price change record. The newest row per
// product is the product's current price; orders pin the row they were
// priced against.
type PriceHistory struct {
	ID          string    `json:"priceHistoryId"`
	ProductID   string    `json:"productId"`
	OldPrice    int64     `json:"oldPrice"`
	NewPrice    int64     `json:"newPrice"`
	EffectiveAt time.Time `json:"effectiveAt"`
}
