package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"genai-chat-go/internal/model"
	"genai-chat-go/pkg/llm"
	"genai-chat-go/pkg/log"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	m.Run()
}

// fakeConversationRepo 是 ConversationRepository 的内存实现，
// 用确定性的递增时钟保证消息顺序可断言。
type fakeConversationRepo struct {
	nextConvID uint
	nextMsgID  uint
	clock      time.Time
	convs      map[uint]*model.Conversation
	msgs       map[uint][]model.Message

	appendErr error
	titleErr  error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		convs: make(map[uint]*model.Conversation),
		msgs:  make(map[uint][]model.Message),
	}
}

func (f *fakeConversationRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeConversationRepo) Create(ctx context.Context, userID uint) (*model.Conversation, error) {
	f.nextConvID++
	now := f.tick()
	conv := &model.Conversation{ID: f.nextConvID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	f.convs[conv.ID] = conv
	return cloneConv(conv), nil
}

func (f *fakeConversationRepo) FindByIDAndUser(ctx context.Context, conversationID, userID uint) (*model.Conversation, error) {
	conv, ok := f.convs[conversationID]
	if !ok || conv.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneConv(conv), nil
}

func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, conv := range f.convs {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeConversationRepo) AppendMessage(ctx context.Context, conversationID uint, role, content string) (*model.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextMsgID++
	now := f.tick()
	msg := model.Message{
		ID:             f.nextMsgID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	f.msgs[conversationID] = append(f.msgs[conversationID], msg)
	if conv, ok := f.convs[conversationID]; ok {
		conv.UpdatedAt = now
	}
	return &msg, nil
}

func (f *fakeConversationRepo) ListMessages(ctx context.Context, conversationID uint) ([]model.Message, error) {
	msgs := append([]model.Message(nil), f.msgs[conversationID]...)
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (f *fakeConversationRepo) SetTitleIfAbsent(ctx context.Context, conversationID uint, title string) error {
	if f.titleErr != nil {
		return f.titleErr
	}
	conv, ok := f.convs[conversationID]
	if !ok {
		return nil
	}
	if conv.Title == "" {
		conv.Title = title
	}
	return nil
}

func (f *fakeConversationRepo) Delete(ctx context.Context, conversationID, userID uint) error {
	conv, ok := f.convs[conversationID]
	if !ok || conv.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(f.convs, conversationID)
	delete(f.msgs, conversationID)
	return nil
}

func cloneConv(conv *model.Conversation) *model.Conversation {
	c := *conv
	return &c
}

// fakeLLMClient 记录收到的调用，可配置为总是降级。
type fakeLLMClient struct {
	reply       string
	alwaysFail  bool
	titleFail   bool
	lastPrompt  string
	lastHistory []llm.Message
	calls       int
}

func (f *fakeLLMClient) GenerateResponse(ctx context.Context, prompt string, history []llm.Message) string {
	f.calls++
	f.lastPrompt = prompt
	f.lastHistory = append([]llm.Message(nil), history...)
	if f.alwaysFail {
		return llm.FallbackReply
	}
	return f.reply
}

func (f *fakeLLMClient) GenerateTitle(ctx context.Context, seed string) string {
	if f.titleFail {
		if len([]rune(seed)) > 50 {
			return string([]rune(seed)[:50]) + "..."
		}
		return seed
	}
	return "Chat about " + seed
}
