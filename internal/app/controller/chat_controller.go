package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/avolkov/gardenshop-backend/internal/app/model"
	"github.com/avolkov/gardenshop-backend/internal/app/service"
	apperrors "github.com/avolkov/gardenshop-backend/internal/errors"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
	ws "github.com/avolkov/gardenshop-backend/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS middleware on the REST surface.
		return true
	},
}

type ChatController struct {
	chatService service.ChatService
	hub         *ws.Hub
}

func NewChatController(chatService service.ChatService, hub *ws.Hub) *ChatController {
	return &ChatController{
		chatService: chatService,
		hub:         hub,
	}
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type AdminSendMessageRequest struct {
	CustomerID uint   `json:"customer_id" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// SendMessage posts a message into the customer's own thread
// POST /api/v1/chat/messages
func (ctrl *ChatController) SendMessage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ChatEmptyMessage, "Сообщение не может быть пустым")
		return
	}

	message, err := ctrl.chatService.SendMessage(userID, req.Text, false)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			apperrors.BadRequest(c, apperrors.ChatEmptyMessage, "Сообщение не может быть пустым")
			return
		}
		log.Error("Failed to send chat message", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// GetHistory returns the customer's own thread
// GET /api/v1/chat/messages
func (ctrl *ChatController) GetHistory(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := ctrl.chatService.GetHistory(userID, limit)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	// Reading the thread marks the admin's replies as read.
	if err := ctrl.chatService.MarkRead(userID, false); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to mark messages read", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// AdminListConversations returns customer IDs with chat threads (admin)
// GET /api/v1/admin/chat/conversations
func (ctrl *ChatController) AdminListConversations(c *gin.Context) {
	ids, err := ctrl.chatService.ListConversations()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer_ids": ids})
}

// AdminGetHistory returns a customer's thread (admin)
// GET /api/v1/admin/chat/:customerID/messages
func (ctrl *ChatController) AdminGetHistory(c *gin.Context) {
	customerID, ok := parseIDParam(c, "customerID")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Некорректный идентификатор покупателя")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := ctrl.chatService.GetHistory(customerID, limit)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	if err := ctrl.chatService.MarkRead(customerID, true); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Failed to mark messages read", map[string]interface{}{
			"customer_id": customerID,
			"error":       err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// AdminSendMessage posts a reply into a customer's thread (admin)
// POST /api/v1/admin/chat/messages
func (ctrl *ChatController) AdminSendMessage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AdminSendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Укажите покупателя и текст сообщения")
		return
	}

	message, err := ctrl.chatService.SendMessage(req.CustomerID, req.Text, true)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			apperrors.BadRequest(c, apperrors.ChatEmptyMessage, "Сообщение не может быть пустым")
			return
		}
		log.Error("Failed to send admin chat message", err, map[string]interface{}{
			"customer_id": req.CustomerID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// Connect upgrades to a WebSocket session for realtime chat pushes
// GET /api/v1/chat/ws
func (ctrl *ChatController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	role, _ := middleware.GetUserRole(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := &ws.Client{
		Hub:     ctrl.hub,
		Conn:    &ws.Conn{Conn: conn},
		UserID:  userID,
		IsAdmin: role == model.RoleAdmin,
		Send:    make(chan []byte, 256),
	}
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
