package models

import "time"

// Order is the immutable record written by checkout.
type Order struct {
	OrderID       string      `gorm:"column:order_id;primaryKey"`
	SessionID     string      `gorm:"column:session_id;not null;index"`
	CustomerName  string      `gorm:"column:customer_name;not null"`
	Address       string      `gorm:"column:address;not null"`
	City          string      `gorm:"column:city;not null;default:''"`
	Pincode       string      `gorm:"column:pincode;not null;default:''"`
	Mobile        string      `gorm:"column:mobile;not null;default:''"`
	PaymentMethod string      `gorm:"column:payment_method;not null;default:''"`
	TotalAmount   int64       `gorm:"column:total_amount;not null"`
	OrderDate     time.Time   `gorm:"column:order_date;not null"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots one cart line at checkout time.
type OrderItem struct {
	OrderID   string `gorm:"column:order_id;primaryKey"`
	Position  int    `gorm:"column:position;primaryKey;autoIncrement:false"`
	ProductID int64  `gorm:"column:product_id;not null"`
	Name      string `gorm:"column:name;not null"`
	Price     int64  `gorm:"column:price;not null"`
	Quantity  int    `gorm:"column:quantity;not null"`
}

func (OrderItem) TableName() string { return "order_items" }
