package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggableBodyRedactsCredentialEndpoints(t *testing.T) {
	body := []byte(`{"username":"alice","password":"password123"}`)

	// 注册、登录和刷新 token 的请求体/响应体一律不进日志
	for _, path := range []string{
		"/api/v1/users/register",
		"/api/v1/users/login",
		"/api/v1/auth/refreshToken",
	} {
		got := loggableBody(path, body)
		assert.Equal(t, "[REDACTED]", got, "path %s", path)
		assert.NotContains(t, got, "password123")
	}
}

func TestLoggableBodyPassesThroughOtherPaths(t *testing.T) {
	body := []byte(`{"message":"hello"}`)
	assert.Equal(t, string(body), loggableBody("/api/v1/chat/send", body))
}
