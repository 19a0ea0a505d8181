package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CustomerInfo is the buyer data captured at checkout. PaymentMethod is
// recorded as given and never checked against a gateway. The validate tags
// only bound field lengths; presence is checked by checkout.
type CustomerInfo struct {
	Name          string `json:"name" validate:"max=200"`
	Address       string `json:"address" validate:"max=500"`
	City          string `json:"city" validate:"max=100"`
	Pincode       string `json:"pincode" validate:"max=16"`
	Mobile        string `json:"mobile" validate:"max=20"`
	PaymentMethod string `json:"paymentMethod,omitempty" validate:"max=32"`
}

// Item is an order line frozen at checkout.
type Item struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order is an immutable placed order.
type Order struct {
	OrderID      string       `json:"orderId"`
	SessionID    string       `json:"-"`
	CustomerInfo CustomerInfo `json:"customerInfo"`
	Items        []Item       `json:"items"`
	TotalAmount  int64        `json:"totalAmount"`
	OrderDate    time.Time    `json:"orderDate"`
}

// FromModel builds the domain order from its persisted rows.
func FromModel(m *models.Order) Order {
	items := make([]Item, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return Order{
		OrderID:   m.OrderID,
		SessionID: m.SessionID,
		CustomerInfo: CustomerInfo{
			Name:          m.CustomerName,
			Address:       m.Address,
			City:          m.City,
			Pincode:       m.Pincode,
			Mobile:        m.Mobile,
			PaymentMethod: m.PaymentMethod,
		},
		Items:       items,
		TotalAmount: m.TotalAmount,
		OrderDate:   m.OrderDate.UTC(),
	}
}

// ToModel maps the order onto its table rows, keeping item order by position.
func ToModel(o Order) *models.Order {
	items := make([]models.OrderItem, 0, len(o.Items))
	for i, it := range o.Items {
		items = append(items, models.OrderItem{
			OrderID:   o.OrderID,
			Position:  i,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &models.Order{
		OrderID:       o.OrderID,
		SessionID:     o.SessionID,
		CustomerName:  o.CustomerInfo.Name,
		Address:       o.CustomerInfo.Address,
		City:          o.CustomerInfo.City,
		Pincode:       o.CustomerInfo.Pincode,
		Mobile:        o.CustomerInfo.Mobile,
		PaymentMethod: o.CustomerInfo.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		OrderDate:     o.OrderDate.UTC(),
		Items:         items,
	}
}
