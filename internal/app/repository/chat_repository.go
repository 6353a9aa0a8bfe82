package repository

import (
	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(message *model.ChatMessage) error
	FindByCustomerID(customerID uint, limit int) ([]model.ChatMessage, error)
	MarkRead(customerID uint, fromAdmin bool) error
	CountUnread(customerID uint, fromAdmin bool) (int64, error)
	ListCustomersWithMessages() ([]uint, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(message *model.ChatMessage) error {
	logger.Debug("Creating chat message in database", map[string]interface{}{
		"customer_id": message.CustomerID,
		"from_admin":  message.FromAdmin,
	})

	if err := r.db.Create(message).Error; err != nil {
		logger.Error("Failed to create chat message in database", err, map[string]interface{}{
			"customer_id": message.CustomerID,
		})
		return err
	}
	return nil
}

func (r *chatRepository) FindByCustomerID(customerID uint, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	query := r.db.Where("customer_id = ?", customerID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		logger.Error("Failed to list chat messages from database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}
	return messages, nil
}

// MarkRead marks messages addressed to the reader: a customer reads admin
// messages, an admin reads customer messages.
func (r *chatRepository) MarkRead(customerID uint, fromAdmin bool) error {
	if err := r.db.Model(&model.ChatMessage{}).
		Where("customer_id = ? AND from_admin = ? AND is_read = ?", customerID, fromAdmin, false).
		Update("is_read", true).Error; err != nil {
		logger.Error("Failed to mark chat messages read in database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return err
	}
	return nil
}

func (r *chatRepository) CountUnread(customerID uint, fromAdmin bool) (int64, error) {
	var count int64
	if err := r.db.Model(&model.ChatMessage{}).
		Where("customer_id = ? AND from_admin = ? AND is_read = ?", customerID, fromAdmin, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListCustomersWithMessages returns distinct customer IDs for the admin
// conversation list, most recent conversation first.
func (r *chatRepository) ListCustomersWithMessages() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.ChatMessage{}).
		Select("customer_id").
		Group("customer_id").
		Order("MAX(created_at) DESC").
		Pluck("customer_id", &ids).Error; err != nil {
		logger.Error("Failed to list chat customers from database", err, nil)
		return nil, err
	}
	return ids, nil
}
