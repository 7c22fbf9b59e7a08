// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"fmt"
	"time"

	"genai-chat-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了对话及其消息的持久化操作接口。
// 所有按 ID 的读取和删除都强制带上所有者校验，防止跨用户访问。
type ConversationRepository interface {
	Create(ctx context.Context, userID uint) (*model.Conversation, error)
	FindByIDAndUser(ctx context.Context, conversationID, userID uint) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]model.Conversation, error)
	AppendMessage(ctx context.Context, conversationID uint, role, content string) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error)
	SetTitleIfAbsent(ctx context.Context, conversationID uint, title string) error
	Delete(ctx context.Context, conversationID, userID uint) error
}

// conversationRepository 是 ConversationRepository 接口的 GORM 实现。
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create 为指定用户创建一个空对话，此时没有标题也没有消息。
func (r *conversationRepository) Create(ctx context.Context, userID uint) (*model.Conversation, error) {
	conv := &model.Conversation{UserID: userID}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// FindByIDAndUser 查找属于指定用户的对话。
// 对话不存在或属于其他用户时统一返回 gorm.ErrRecordNotFound。
func (r *conversationRepository) FindByIDAndUser(ctx context.Context, conversationID, userID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByUser 按最近活跃排序返回用户的对话列表。
func (r *conversationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Conversation, error) {
	var convs []model.Conversation
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// AppendMessage 向对话追加一条消息并推进父对话的 updated_at。
// 两个写操作在同一个事务中完成。
func (r *conversationRepository) AppendMessage(ctx context.Context, conversationID uint, role, content string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if err := tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages 返回对话的全部消息，按创建时间升序，时间相同按 ID 升序。
func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// SetTitleIfAbsent 仅在对话尚未有标题时设置标题。
// 条件更新保证了并发下标题至多被设置一次，重复调用是空操作。
func (r *conversationRepository) SetTitleIfAbsent(ctx context.Context, conversationID uint, title string) error {
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ? AND (title IS NULL OR title = '')", conversationID).
		Update("title", title).Error
	if err != nil {
		return fmt.Errorf("failed to set conversation title: %w", err)
	}
	return nil
}

// Delete 删除属于指定用户的对话及其全部消息。
// 对话不存在或不属于该用户时返回 gorm.ErrRecordNotFound。
func (r *conversationRepository) Delete(ctx context.Context, conversationID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", conversationID, userID).
			Delete(&model.Conversation{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("conversation_id = ?", conversationID).
			Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		return nil
	})
}
