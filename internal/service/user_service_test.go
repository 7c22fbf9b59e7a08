package service

import (
	"context"
	"testing"

	"genai-chat-go/internal/model"
	"genai-chat-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeUserRepo 是 UserRepository 的内存实现。
type fakeUserRepo struct {
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User)}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Update(user *model.User) error {
	u := *user
	f.users[user.ID] = &u
	return nil
}

func newTestUserService(repo *fakeUserRepo) UserService {
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(repo, jwtManager, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Register("alice", "alice@example.com", "password123", "Alice", "Liddell")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "USER", user.Role)
	// 密码必须以哈希形式存储
	assert.NotEqual(t, "password123", repo.users[user.ID].Password)

	access, refresh, err := svc.Login("alice", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, err = svc.Login("alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	_, err := svc.Register("alice", "alice@example.com", "password123", "", "")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other@example.com", "password123", "", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.Register("bob", "alice@example.com", "password123", "", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	_, err := svc.Register("alice", "alice@example.com", "password123", "", "")
	require.NoError(t, err)
	_, refresh, err := svc.Login("alice", "password123")
	require.NoError(t, err)

	access2, refresh2, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEmpty(t, refresh2)

	_, _, err = svc.RefreshToken("not-a-token")
	assert.Error(t, err)
}

func TestAvatarStorageDisabled(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestUserService(repo)

	user, err := svc.Register("alice", "alice@example.com", "password123", "", "")
	require.NoError(t, err)

	err = svc.UpdateAvatar(context.Background(), user.ID, nil, 0, "image/png")
	assert.ErrorIs(t, err, ErrAvatarStorageDisabled)
	assert.Empty(t, svc.AvatarURL(context.Background(), user))
}
