package domain

import "time"

type Category struct {
	ID            string        `json:"categoryId"`
	Name          string        `json:"categoryName"`
	Description   string        `json:"description,omitempty"`
	SubCategories []SubCategory `json:"subCategories,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type SubCategory struct {
	ID         string    `json:"subCategoryId"`
	CategoryID string    `json:"categoryId"`
	Name       string    `json:"subCategoryName"`
	CreatedAt  time.Time `json:"createdAt"`
}
