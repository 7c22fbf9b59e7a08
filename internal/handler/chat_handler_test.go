package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/service"
	"genai-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "")
	m.Run()
}

// fakeChatService 返回预设的结果或错误。
type fakeChatService struct {
	result *service.SendResult
	err    error

	gotUserID  uint
	gotConvID  *uint
	gotContent string
}

func (f *fakeChatService) SendMessage(ctx context.Context, userID uint, conversationID *uint, content string) (*service.SendResult, error) {
	f.gotUserID = userID
	f.gotConvID = conversationID
	f.gotContent = content
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// newChatRouter 构造一个注入了固定用户的测试路由。
func newChatRouter(svc service.ChatService) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/chat/send", func(c *gin.Context) {
		c.Set("user", &model.User{ID: 7, Username: "alice"})
		c.Next()
	}, NewChatHandler(svc).SendMessage)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessageEndpointSuccess(t *testing.T) {
	fake := &fakeChatService{
		result: &service.SendResult{
			ConversationID:   3,
			Title:            "Greetings",
			UserMessage:      model.Message{ID: 1, Role: model.RoleUser, Content: "Hello"},
			AssistantMessage: model.Message{ID: 2, Role: model.RoleAssistant, Content: "Hi!"},
		},
	}
	r := newChatRouter(fake)

	w := postJSON(t, r, "/api/v1/chat/send", gin.H{"message": "Hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                `json:"code"`
		Data service.SendResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, uint(3), resp.Data.ConversationID)
	assert.Equal(t, "Greetings", resp.Data.Title)
	assert.Equal(t, "Hi!", resp.Data.AssistantMessage.Content)

	// 认证用户的 ID 被传递给 service，未指定对话时为 nil
	assert.Equal(t, uint(7), fake.gotUserID)
	assert.Nil(t, fake.gotConvID)
}

func TestSendMessageEndpointEmptyMessage(t *testing.T) {
	fake := &fakeChatService{err: service.ErrEmptyMessage}
	r := newChatRouter(fake)

	w := postJSON(t, r, "/api/v1/chat/send", gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageEndpointNotFound(t *testing.T) {
	fake := &fakeChatService{err: service.ErrConversationNotFound}
	r := newChatRouter(fake)

	w := postJSON(t, r, "/api/v1/chat/send", gin.H{"conversation_id": 99, "message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, fake.gotConvID)
	assert.Equal(t, uint(99), *fake.gotConvID)
}

func TestSendMessageEndpointStorageFailure(t *testing.T) {
	fake := &fakeChatService{err: assert.AnError}
	r := newChatRouter(fake)

	w := postJSON(t, r, "/api/v1/chat/send", gin.H{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
