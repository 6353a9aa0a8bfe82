package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item. Quantity is the authoritative stock figure:
// decremented when an order is confirmed, restored when a confirmed order
// is cancelled.
type Product struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	Name             string           `gorm:"not null" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string           `gorm:"type:text" json:"description"`
	ShortDescription string           `gorm:"type:varchar(255)" json:"short_description"`
	Price            decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"price"`
	OldPrice         *decimal.Decimal `gorm:"type:numeric(10,2)" json:"old_price,omitempty"` // pre-discount price
	Quantity         int              `gorm:"default:0" json:"quantity"`
	CategoryID       uint             `gorm:"not null;index" json:"category_id"`
	ImageURL         string           `json:"image_url"`
	IsActive         bool             `json:"is_active"`
	IsFeatured       bool             `gorm:"default:false" json:"is_featured"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`

	Category Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`

	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
	CartItems  []CartItem  `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// Available reports whether the product can be ordered
func (p *Product) Available() bool {
	return p.IsActive && p.Quantity > 0
}

// HasDiscount reports whether the old price exceeds the current one
func (p *Product) HasDiscount() bool {
	return p.OldPrice != nil && p.OldPrice.GreaterThan(p.Price)
}

// DiscountPercent returns the discount as a whole percentage, 0 without one
func (p *Product) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	percent := decimal.NewFromInt(1).
		Sub(p.Price.Div(*p.OldPrice)).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(percent.IntPart())
}

// ProductImage is an additional gallery image ordered by Position
type ProductImage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	ImageURL  string         `gorm:"not null" json:"image_url"`
	AltText   string         `gorm:"type:varchar(100)" json:"alt_text"`
	Position  int            `gorm:"default:0" json:"position"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProductImage) TableName() string {
	return "product_images"
}
