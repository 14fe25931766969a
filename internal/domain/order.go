package domain

import "time"

const (
	OrderPendingConfirmation = "PENDING_CONFIRMATION"
	OrderPendingPayment      = "PENDING_PAYMENT"
	OrderCompleted           = "COMPLETED"
	OrderCancelled           = "CANCELLED"
)

const (
	PaymentCOD  = "COD"
	PaymentCard = "CARD"
)

type Order struct {
	ID            string        `json:"orderId"`
	UserID        string        `json:"userId"`
	CustomerName  string        `json:"customerName"`
	PhoneNumber   string        `json:"phoneNumber"`
	Address       string        `json:"address"`
	ProvinceID    string        `json:"provinceId"`
	DistrictID    string        `json:"districtId"`
	WardID        string        `json:"wardId"`
	Note          string        `json:"note,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
	ShippingFee   int64         `json:"shippingFee"`
	TotalAmount   int64         `json:"totalAmount"`
	Status        string        `json:"status"`
	Details       []OrderDetail `json:"orderDetails,omitempty"`
	CreatedAt     time.Time     `json:"orderDate"`
}

// OrderDetail pins the unit price and the price-history row the line was
// charged against, so later catalog price changes never rewrite an order.
type OrderDetail struct {
	ID             string `json:"orderDetailId"`
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	Price          int64  `json:"price"`
	PriceHistoryID string `json:"priceHistoryId"`
}

// ValidStatusTransition reports whether an order may move between states.
// Cancellation is a customer action and only allowed before confirmation.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case OrderPendingConfirmation:
		return to == OrderPendingPayment || to == OrderCompleted || to == OrderCancelled
	case OrderPendingPayment:
		return to == OrderCompleted || to == OrderCancelled
	default:
		return false
	}
}
