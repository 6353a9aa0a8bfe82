package service

import (
	"errors"
	"strings"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/repository"
	"github.com/avolkov/gardenshop-backend/pkg/logger"
)

var ErrEmptyMessage = errors.New("message text is empty")

// ChatBroadcaster pushes a stored message to connected WebSocket clients.
type ChatBroadcaster interface {
	BroadcastMessage(message *model.ChatMessage)
}

type ChatService interface {
	SendMessage(customerID uint, text string, fromAdmin bool) (*model.ChatMessage, error)
	GetHistory(customerID uint, limit int) ([]model.ChatMessage, error)
	MarkRead(customerID uint, readerIsAdmin bool) error
	UnreadCount(customerID uint, readerIsAdmin bool) (int64, error)
	ListConversations() ([]uint, error)
}

type chatService struct {
	chatRepo    repository.ChatRepository
	broadcaster ChatBroadcaster
}

func NewChatService(chatRepo repository.ChatRepository, broadcaster ChatBroadcaster) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		broadcaster: broadcaster,
	}
}

func (s *chatService) SendMessage(customerID uint, text string, fromAdmin bool) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message := &model.ChatMessage{
		CustomerID: customerID,
		Text:       text,
		FromAdmin:  fromAdmin,
	}
	if err := s.chatRepo.Create(message); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(message)
	}

	logger.Debug("Chat message sent", map[string]interface{}{
		"customer_id": customerID,
		"from_admin":  fromAdmin,
	})
	return message, nil
}

func (s *chatService) GetHistory(customerID uint, limit int) ([]model.ChatMessage, error) {
	return s.chatRepo.FindByCustomerID(customerID, limit)
}

// MarkRead marks the other side's messages as read: an admin reads customer
// messages, a customer reads admin messages.
func (s *chatService) MarkRead(customerID uint, readerIsAdmin bool) error {
	return s.chatRepo.MarkRead(customerID, !readerIsAdmin)
}

func (s *chatService) UnreadCount(customerID uint, readerIsAdmin bool) (int64, error) {
	return s.chatRepo.CountUnread(customerID, !readerIsAdmin)
}

func (s *chatService) ListConversations() ([]uint, error) {
	return s.chatRepo.ListCustomersWithMessages()
}
