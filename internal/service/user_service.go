// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"genai-chat-go/internal/model"
	"genai-chat-go/internal/repository"
	"genai-chat-go/pkg/database"
	"genai-chat-go/pkg/hash"
	"genai-chat-go/pkg/log"
	"genai-chat-go/pkg/storage"
	"genai-chat-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, email, password, firstName, lastName string) (*model.User, error)
	Login(username, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	Logout(tokenString string) error
	IsTokenBlacklisted(tokenString string) bool
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	UpdateAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) error
	AvatarURL(ctx context.Context, user *model.User) string
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
	avatars    *storage.AvatarStore
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager, avatars *storage.AvatarStore) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		avatars:    avatars,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, email, password, firstName, lastName string) (*model.User, error) {
	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 检查邮箱是否已被占用
	_, err = s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 4. 创建新用户
	newUser := &model.User{
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		FirstName: firstName,
		LastName:  lastName,
		Role:      "USER", // 默认角色
	}
	if err := s.userRepo.Create(newUser); err != nil {
		log.Errorf("[UserService] 创建用户失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	return s.userRepo.FindByUsername(username)
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
// token 的剩余有效期作为黑名单 key 的过期时间。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// IsTokenBlacklisted 检查 token 是否已被登出拉黑。
// Redis 不可用时保守放行并记录日志，认证本身仍由签名校验保证。
func (s *userService) IsTokenBlacklisted(tokenString string) bool {
	exists, err := database.RDB.Exists(context.Background(), "blacklist:"+tokenString).Result()
	if err != nil {
		log.Warnf("检查 token 黑名单失败: %v", err)
		return false
	}
	return exists > 0
}

// RefreshToken 校验 refresh token 并签发新的 token 对。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", err
	}

	// 确认用户仍然存在，已被删除的用户不能续签
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", err
	}

	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}

// UpdateAvatar 上传用户头像到对象存储并更新用户记录。
func (s *userService) UpdateAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) error {
	if s.avatars == nil {
		return ErrAvatarStorageDisabled
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	objectName, err := s.avatars.Put(ctx, userID, reader, size, contentType)
	if err != nil {
		return err
	}

	user.AvatarObject = objectName
	return s.userRepo.Update(user)
}

// AvatarURL 为用户头像生成一个临时访问 URL，没有头像时返回空串。
func (s *userService) AvatarURL(ctx context.Context, user *model.User) string {
	if s.avatars == nil || user.AvatarObject == "" {
		return ""
	}
	url, err := s.avatars.PresignedURL(ctx, user.AvatarObject, time.Hour)
	if err != nil {
		return ""
	}
	return url
}
