package domain

import "time"

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID           string    `json:"userId"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	Addresses    []Address `json:"addresses,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Address holds a delivery address. Region identifiers are opaque ids the
// storefront resolves against an external geo service.
type Address struct {
	ID           string `json:"addressId"`
	UserID       string `json:"userId"`
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
	Street       string `json:"address"`
	ProvinceID   string `json:"provinceId"`
	DistrictID   string `json:"districtId"`
	WardID       string `json:"wardId"`
	Default      bool   `json:"isDefault"`
}
