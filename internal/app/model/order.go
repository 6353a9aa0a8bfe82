package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string // order lifecycle state

const (
	OrderStatusNew       OrderStatus = "new"       // placed, awaiting review
	OrderStatusConfirmed OrderStatus = "confirmed" // stock consumed
	OrderStatusCancelled OrderStatus = "cancelled" // terminal
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is created at checkout with status "new" and mutated only through
// the status transition operation. TotalAmount is derived from the items
// and recomputed on every mutating save.
type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	CustomerID      uint            `gorm:"not null;index" json:"customer_id"`
	Status          OrderStatus     `gorm:"type:varchar(20);default:'new';index" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	ContactPhone    string          `gorm:"type:varchar(20)" json:"contact_phone"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address"`
	Comment         string          `gorm:"type:text" json:"comment"`       // left by the customer
	AdminComment    string          `gorm:"type:text" json:"admin_comment"` // left by back-office staff
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	Customer Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// RecalculateTotal recomputes TotalAmount from the loaded items
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	o.TotalAmount = total
}

// OrderItem captures the product price at creation time; Price never
// changes afterwards even if the product is repriced.
type OrderItem struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// TotalPrice is the line subtotal at the captured price
func (oi *OrderItem) TotalPrice() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
