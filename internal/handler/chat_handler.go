// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/service"
	"genai-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 处理发送消息的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
// ConversationID 为空时隐式创建新对话。
type SendMessageRequest struct {
	ConversationID *uint  `json:"conversation_id"`
	Message        string `json:"message"`
}

// SendMessage 处理一条用户消息并同步返回助手回复。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SendMessage: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载",
		})
		return
	}

	user := c.MustGet("user").(*model.User)

	result, err := h.chatService.SendMessage(c.Request.Context(), user.ID, req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "消息内容不能为空",
			})
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "对话不存在",
			})
		default:
			log.Error("SendMessage: failed to process message", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "消息处理失败",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    result,
	})
}
