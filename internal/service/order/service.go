package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service owns the order lifecycle: checkout, listing, status moves and
// customer cancellation.
type Service struct {
	orders      orderRepo
	products    productRepo
	shippingFee int64
	logger      zerolog.Logger
}

func New(orders orderRepo, products productRepo, shippingFee int64, logger zerolog.Logger) *Service {
	return &Service{
		orders:      orders,
		products:    products,
		shippingFee: shippingFee,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	UserID        string         `json:"userId"`
	CustomerName  string         `json:"customerName"`
	PhoneNumber   string         `json:"phoneNumber"`
	Address       string         `json:"address"`
	ProvinceID    string         `json:"provinceId"`
	DistrictID    string         `json:"districtId"`
	WardID        string         `json:"wardId"`
	Note          string         `json:"note"`
	PaymentMethod string         `json:"paymentMethod"`
	Items         []CheckoutItem `json:"orderDetails"`
}

// Checkout prices every line against the product's current price-history
// row, pins that row on the order detail, and creates the order. COD orders
// wait for confirmation; card orders wait for payment.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	details := make([]domain.OrderDetail, 0, len(in.Items))
	var subtotal int64
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive for %s", domain.ErrValidation, item.ProductID)
		}
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if p.CurrentPrice == nil || p.CurrentPrice.NewPrice <= 0 {
			return nil, fmt.Errorf("%w: product %s has no price", domain.ErrValidation, item.ProductID)
		}
		details = append(details, domain.OrderDetail{
			ProductID:      p.ID,
			Quantity:       item.Quantity,
			Price:          p.CurrentPrice.NewPrice,
			PriceHistoryID: p.CurrentPrice.ID,
		})
		subtotal += p.CurrentPrice.NewPrice * int64(item.Quantity)
	}

	status := domain.OrderPendingConfirmation
	if in.PaymentMethod == domain.PaymentCard {
		status = domain.OrderPendingPayment
	}

	created, err := s.orders.Create(ctx, domain.Order{
		UserID:        in.UserID,
		CustomerName:  in.CustomerName,
		PhoneNumber:   in.PhoneNumber,
		Address:       in.Address,
		ProvinceID:    in.ProvinceID,
		DistrictID:    in.DistrictID,
		WardID:        in.WardID,
		Note:          in.Note,
		PaymentMethod: in.PaymentMethod,
		ShippingFee:   s.shippingFee,
		TotalAmount:   subtotal + s.shippingFee,
		Status:        status,
		Details:       details,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", created.ID).Str("user_id", in.UserID).Int64("total", created.TotalAmount).Msg("checkout complete")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// UpdateStatus is the admin path. Transitions outside the lifecycle are
// rejected before touching storage.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.ValidStatusTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrValidation, o.Status, status)
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o.Status = status
	return o, nil
}

// Cancel is the customer path: only the order's owner may cancel, and only
// while the order still waits for confirmation.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if o.Status != domain.OrderPendingConfirmation {
		return nil, fmt.Errorf("%w: order %s can no longer be cancelled", domain.ErrValidation, orderID)
	}
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderCancelled); err != nil {
		return nil, err
	}
	o.Status = domain.OrderCancelled
	return o, nil
}

func validateCheckout(in CheckoutInput) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s required", domain.ErrValidation, field)
	}
	switch {
	case in.UserID == "":
		return missing("userId")
	case strings.TrimSpace(in.CustomerName) == "":
		return missing("customerName")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return missing("phoneNumber")
	case strings.TrimSpace(in.Address) == "":
		return missing("address")
	case in.ProvinceID == "":
		return missing("provinceId")
	case in.DistrictID == "":
		return missing("districtId")
	case in.WardID == "":
		return missing("wardId")
	case len(in.Items) == 0:
		return fmt.Errorf("%w: order has no items", domain.ErrValidation)
	}
	if in.PaymentMethod != domain.PaymentCOD && in.PaymentMethod != domain.PaymentCard {
		return fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	return nil
}
