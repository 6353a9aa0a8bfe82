package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type CustomerRole string // customer permission level

const (
	RoleUser  CustomerRole = "user"
	RoleAdmin CustomerRole = "admin"
)

// Customer is the login identity, keyed by email. Phone is a secondary
// unique identifier used as the default order contact.
type Customer struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"`
	FirstName    string         `gorm:"not null" json:"first_name"`
	LastName     string         `gorm:"not null" json:"last_name"`
	Patronymic   string         `json:"patronymic,omitempty"`
	Address      string         `gorm:"type:text" json:"address"` // delivery address
	Role         CustomerRole   `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Orders []Order `gorm:"foreignKey:CustomerID" json:"-"`
	Carts  []Cart  `gorm:"foreignKey:UserID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// FullName returns "Фамилия Имя Отчество" with the patronymic omitted
// when absent.
func (c *Customer) FullName() string {
	parts := []string{c.LastName, c.FirstName}
	if c.Patronymic != "" {
		parts = append(parts, c.Patronymic)
	}
	return strings.Join(parts, " ")
}
