// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/repository"
	"genai-chat-go/pkg/events"
	"genai-chat-go/pkg/llm"
	"genai-chat-go/pkg/log"

	"gorm.io/gorm"
)

// SendResult 是一次完整问答交互的结果，交给 handler 层渲染响应。
type SendResult struct {
	ConversationID   uint          `json:"conversationId"`
	Title            string        `json:"title"`
	UserMessage      model.Message `json:"userMessage"`
	AssistantMessage model.Message `json:"assistantMessage"`
}

// ChatService 定义了聊天编排的接口。
type ChatService interface {
	// SendMessage 处理一条用户消息：落库、生成回复、维护标题。
	// conversationID 为 nil 时隐式创建新对话。
	SendMessage(ctx context.Context, userID uint, conversationID *uint, content string) (*SendResult, error)
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	llmClient        llm.Client
	producer         *events.Producer
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(conversationRepo repository.ConversationRepository, llmClient llm.Client, producer *events.Producer) ChatService {
	return &chatService{
		conversationRepo: conversationRepo,
		llmClient:        llmClient,
		producer:         producer,
	}
}

// SendMessage 协调一次问答交互。
//
// 用户消息先于远端调用落库：即使生成服务完全不可用，用户的输入也不会
// 丢失。远端失败由 llm.Client 吸收为降级回复，走完全相同的持久化路径，
// 因此前三步成功之后本方法的主流程不会再失败于生成环节。
func (s *chatService) SendMessage(ctx context.Context, userID uint, conversationID *uint, content string) (*SendResult, error) {
	// 1. 校验输入，任何状态变更之前拒绝空消息
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	// 2. 解析对话：带 ID 则按所有者加载，否则隐式创建
	conv, err := s.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	// 3. 持久化用户消息
	userMsg, err := s.conversationRepo.AppendMessage(ctx, conv.ID, model.RoleUser, content)
	if err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	// 4. 读取完整的有序历史（包含刚写入的这条用户消息）
	history, err := s.conversationRepo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	// 5. 生成回复。按契约此调用不会失败，降级时返回固定文案
	reply := s.llmClient.GenerateResponse(ctx, content, priorTurns(history, userMsg.ID))

	// 6. 持久化助手消息
	assistantMsg, err := s.conversationRepo.AppendMessage(ctx, conv.ID, model.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	// 7. 标题维护：仅在尚未有标题时根据首条用户消息生成一次
	title := conv.Title
	if title == "" {
		title = s.ensureTitle(ctx, conv, history, userID)
	}

	s.publishExchange(userID, conv.ID, userMsg.ID, assistantMsg.ID, reply)

	// 8. 返回两条已持久化的消息与会话元数据
	return &SendResult{
		ConversationID:   conv.ID,
		Title:            title,
		UserMessage:      *userMsg,
		AssistantMessage: *assistantMsg,
	}, nil
}

// resolveConversation 加载或创建本次交互的目标对话。
func (s *chatService) resolveConversation(ctx context.Context, userID uint, conversationID *uint) (*model.Conversation, error) {
	if conversationID == nil {
		conv, err := s.conversationRepo.Create(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conv, nil
	}

	conv, err := s.conversationRepo.FindByIDAndUser(ctx, *conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// ensureTitle 根据首条用户消息生成标题并做条件写入。
// SetTitleIfAbsent 是幂等的，并发的第二次 send 不会覆盖已有标题。
// 标题维护失败只记录日志，不影响已经成功的问答交互。
func (s *chatService) ensureTitle(ctx context.Context, conv *model.Conversation, history []model.Message, userID uint) string {
	seed := firstUserMessage(history)
	if seed == "" {
		return ""
	}

	title := s.llmClient.GenerateTitle(ctx, seed)
	if err := s.conversationRepo.SetTitleIfAbsent(ctx, conv.ID, title); err != nil {
		log.Errorf("设置对话标题失败, conversationID: %d, error: %v", conv.ID, err)
		return ""
	}

	// 条件更新可能因并发而未生效，以库中的标题为准
	if current, err := s.conversationRepo.FindByIDAndUser(ctx, conv.ID, userID); err == nil {
		return current.Title
	}
	return title
}

// publishExchange 在配置了 Kafka 时异步上报本次交互。
func (s *chatService) publishExchange(userID, convID, userMsgID, assistantMsgID uint, reply string) {
	if s.producer == nil {
		return
	}
	s.producer.Publish(events.ChatExchange{
		UserID:             userID,
		ConversationID:     convID,
		UserMessageID:      userMsgID,
		AssistantMessageID: assistantMsgID,
		Degraded:           reply == llm.FallbackReply,
		At:                 time.Now(),
	})
}

// priorTurns 把刚写入的用户消息之前的历史转换为 LLM 消息。
// 最新输入由 llm.Client 追加在上下文末尾，这里要避免重复。
func priorTurns(history []model.Message, latestUserMsgID uint) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.ID == latestUserMsgID {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// firstUserMessage 返回对话中第一条用户消息的内容。
func firstUserMessage(history []model.Message) string {
	for _, m := range history {
		if m.Role == model.RoleUser {
			return m.Content
		}
	}
	return ""
}
