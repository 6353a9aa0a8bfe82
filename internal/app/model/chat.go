package model

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage is one entry in the support chat log. Append-only: messages
// are never edited, only flagged read by the back office.
type ChatMessage struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CustomerID uint           `gorm:"not null;index:idx_chat_customer_created,priority:1" json:"customer_id"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	FromAdmin  bool           `gorm:"default:false" json:"from_admin"`
	IsRead     bool           `gorm:"default:false;index" json:"is_read"`
	CreatedAt  time.Time      `gorm:"index:idx_chat_customer_created,priority:2" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
