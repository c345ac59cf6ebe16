//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAuthFlow(t *testing.T) {
	email, token := RegisterTestUser(t, "auth_flow")

	resp := GetJSON(t, BaseURL+"/users/me", token)
	require.True(t, resp.OK(), resp.Message)
	var me struct {
		Email   string `json:"email"`
		IsStaff bool   `json:"is_staff"`
	}
	resp.Decode(t, &me)
	assert.Equal(t, email, me.Email)
	assert.False(t, me.IsStaff)

	t.Run("重复邮箱", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/users/register", map[string]string{"email": email, "password": "Test1234"}, "")
		assert.False(t, resp.OK())
	})

	t.Run("错误密码", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/users/login", map[string]string{"email": email, "password": "wrong-pass"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})

	t.Run("登出后token失效", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/users/logout", nil, token)
		require.True(t, resp.OK(), resp.Message)

		resp = GetJSON(t, BaseURL+"/users/me", token)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})
}
