// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务错误的分类。handler 层依赖这些哨兵错误把失败映射为对应的
// HTTP 状态码；除此之外的错误一律视为存储层不可用。
var (
	// ErrEmptyMessage 表示消息内容为空或仅含空白字符。
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrConversationNotFound 表示对话不存在，或不属于当前用户。
	// 两种情况对调用方不做区分，避免暴露他人对话的存在性。
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken 表示用户名已被占用。
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken 表示邮箱已被占用。
	ErrEmailTaken = errors.New("email already exists")
	// ErrAvatarStorageDisabled 表示对象存储未配置，头像功能不可用。
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
)
