package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"genai-chat-go/internal/model"
	"genai-chat-go/pkg/log"
	"genai-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "")
	m.Run()
}

// fakeUserService 只实现中间件用到的方法，其余返回零值。
type fakeUserService struct {
	user        *model.User
	blacklisted bool
}

func (f *fakeUserService) Register(username, email, password, firstName, lastName string) (*model.User, error) {
	return nil, nil
}
func (f *fakeUserService) Login(username, password string) (string, string, error) { return "", "", nil }
func (f *fakeUserService) GetProfile(username string) (*model.User, error) {
	if f.user == nil || f.user.Username != username {
		return nil, errors.New("user not found")
	}
	return f.user, nil
}
func (f *fakeUserService) Logout(tokenString string) error               { return nil }
func (f *fakeUserService) IsTokenBlacklisted(tokenString string) bool    { return f.blacklisted }
func (f *fakeUserService) RefreshToken(s string) (string, string, error) { return "", "", nil }
func (f *fakeUserService) UpdateAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) error {
	return nil
}
func (f *fakeUserService) AvatarURL(ctx context.Context, user *model.User) string { return "" }

func newAuthRouter(jwtManager *token.JWTManager, svc *fakeUserService) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager, svc), func(c *gin.Context) {
		user := c.MustGet("user").(*model.User)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAllowsValidToken(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	svc := &fakeUserService{user: &model.User{ID: 1, Username: "alice"}}
	r := newAuthRouter(jm, svc)

	tok, err := jm.GenerateToken(1, "alice", "USER")
	require.NoError(t, err)

	w := doGet(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	r := newAuthRouter(jm, &fakeUserService{})

	w := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	r := newAuthRouter(jm, &fakeUserService{})

	w := doGet(r, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	other := token.NewJWTManager("other-secret", 1, 7)
	r := newAuthRouter(jm, &fakeUserService{user: &model.User{ID: 1, Username: "alice"}})

	tok, err := other.GenerateToken(1, "alice", "USER")
	require.NoError(t, err)

	w := doGet(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBlacklistedToken(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	svc := &fakeUserService{user: &model.User{ID: 1, Username: "alice"}, blacklisted: true}
	r := newAuthRouter(jm, svc)

	tok, err := jm.GenerateToken(1, "alice", "USER")
	require.NoError(t, err)

	w := doGet(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsUnknownUser(t *testing.T) {
	jm := token.NewJWTManager("test-secret", 1, 7)
	r := newAuthRouter(jm, &fakeUserService{})

	tok, err := jm.GenerateToken(2, "ghost", "USER")
	require.NoError(t, err)

	w := doGet(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
