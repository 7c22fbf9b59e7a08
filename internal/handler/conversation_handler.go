// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/service"
	"genai-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 对话列表默认返回的最大条数。
const conversationListLimit = 10

// ConversationHandler 处理与对话相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations 处理获取用户对话列表的请求。
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	convs, err := h.service.ListConversations(c.Request.Context(), user.ID, conversationListLimit)
	if err != nil {
		log.Error("ListConversations: failed to list conversations", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "获取对话列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    convs,
	})
}

// GetConversation 处理获取单个对话及其消息历史的请求。
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	conv, msgs, err := h.service.GetConversation(c.Request.Context(), user.ID, conversationID)
	if err != nil {
		h.respondConversationError(c, "获取对话失败", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"conversation": conv,
			"messages":     msgs,
		},
	})
}

// DeleteConversation 处理删除对话的请求，消息级联删除。
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	conversationID, ok := parseConversationID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), user.ID, conversationID); err != nil {
		h.respondConversationError(c, "删除对话失败", err)
		return
	}

	log.Infof("User '%s' deleted conversation %d", user.Username, conversationID)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "对话已删除",
	})
}

// parseConversationID 解析路径参数中的对话 ID。
func parseConversationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的对话 ID",
		})
		return 0, false
	}
	return uint(id), true
}

// respondConversationError 把业务错误映射为对应的 HTTP 响应。
func (h *ConversationHandler) respondConversationError(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "对话不存在",
		})
		return
	}
	log.Error("ConversationHandler: "+msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    http.StatusInternalServerError,
		"message": msg,
	})
}
