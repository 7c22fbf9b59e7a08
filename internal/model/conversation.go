// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息来源，只有用户和助手两种。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation 代表一个归属于单个用户的对话线程。
// Title 在第一轮问答成功完成之前为空，且只会被系统设置一次。
type Conversation struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"userId"`
	// Title 为空字符串表示尚未生成标题。
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// UpdatedAt 在每次追加消息时被推进。
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 代表对话中的一轮发言，写入后不可变。
type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ConversationID uint   `gorm:"index;not null" json:"conversationId"`
	Role           string `gorm:"type:varchar(16);not null" json:"role"`
	Content        string `gorm:"type:text;not null" json:"content"`
	// CreatedAt 决定了消息在对话内的全序，相同时间戳时按插入顺序（ID）排序。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
