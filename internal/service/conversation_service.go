// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/repository"

	"gorm.io/gorm"
)

// ConversationService 定义了对话管理的接口。
type ConversationService interface {
	// ListConversations 按最近活跃排序返回用户的对话列表。
	ListConversations(ctx context.Context, userID uint, limit int) ([]model.Conversation, error)
	// GetConversation 返回用户的单个对话及其全部有序消息。
	GetConversation(ctx context.Context, userID, conversationID uint) (*model.Conversation, []model.Message, error)
	// DeleteConversation 删除用户的对话，消息随之级联删除。
	DeleteConversation(ctx context.Context, userID, conversationID uint) error
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// ListConversations 获取用户的对话列表。
func (s *conversationService) ListConversations(ctx context.Context, userID uint, limit int) ([]model.Conversation, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// GetConversation 获取用户的单个对话及其消息历史。
func (s *conversationService) GetConversation(ctx context.Context, userID, conversationID uint) (*model.Conversation, []model.Message, error) {
	conv, err := s.repo.FindByIDAndUser(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return conv, nil, err
	}
	return conv, msgs, nil
}

// DeleteConversation 删除用户的对话。
func (s *conversationService) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	err := s.repo.Delete(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}
