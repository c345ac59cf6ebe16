//go:build integration

// Package integration 针对运行中api进程的端到端测试
//
// 运行方式：
//
//	docker compose up -d mysql redis && go run ./cmd/api
//	LIBRARY_IT_ADMIN_EMAIL=admin@library.local LIBRARY_IT_ADMIN_PASSWORD=... \
//	  go test -tags integration -v ./test/integration/...
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Timeout HTTP请求超时时间
const Timeout = 10 * time.Second

// BaseURL API基础URL，可用LIBRARY_IT_BASE_URL覆盖
var BaseURL = envOr("LIBRARY_IT_BASE_URL", "http://localhost:8080/api/v1")

var (
	client = &http.Client{Timeout: Timeout}
	seq    atomic.Int64
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Response 统一响应结构
type Response struct {
	Status  int             `json:"-"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// OK 业务成功
func (r *Response) OK() bool { return r.Code == 0 && r.Status < 300 }

// Decode 解析data字段
func (r *Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "解析响应数据失败: %s", string(r.Data))
}

// BookData 图书响应数据
type BookData struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Inventory int    `json:"inventory"`
	DailyFee  string `json:"daily_fee"`
}

// BorrowingData 借阅响应数据
type BorrowingData struct {
	ID                 uint     `json:"id"`
	BorrowDate         string   `json:"borrow_date"`
	ExpectedReturnDate string   `json:"expected_return_date"`
	ActualReturnDate   *string  `json:"actual_return_date"`
	Book               BookData `json:"book"`
	User               uint     `json:"user"`
}

// Do 发送请求并解析统一响应，204等空响应只填Status
func Do(t *testing.T, method, url string, data interface{}, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	result := &Response{Status: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, result), "解析JSON响应失败: %s", string(raw))
	}
	return result
}

// PostJSON 发送POST请求
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	t.Helper()
	return Do(t, http.MethodPost, url, data, token)
}

// GetJSON 发送GET请求
func GetJSON(t *testing.T, url string, token string) *Response {
	t.Helper()
	return Do(t, http.MethodGet, url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// Login 登录并返回access token
func Login(t *testing.T, email, password string) string {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/users/login", map[string]string{"email": email, "password": password}, "")
	require.True(t, resp.OK(), "登录失败: %s", resp.Message)

	var data struct {
		AccessToken string `json:"access_token"`
	}
	resp.Decode(t, &data)
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

// RegisterTestUser 注册读者并返回token
func RegisterTestUser(t *testing.T, nickname string) (email string, token string) {
	t.Helper()
	email = GenerateTestEmail(nickname)
	resp := PostJSON(t, BaseURL+"/users/register", map[string]string{
		"email":    email,
		"password": "Test1234",
		"nickname": nickname,
	}, "")
	require.True(t, resp.OK(), "注册失败: %s", resp.Message)
	return email, Login(t, email, "Test1234")
}

// AdminToken 启动时创建的管理员账号，未配置时跳过测试
func AdminToken(t *testing.T) string {
	t.Helper()
	email, password := os.Getenv("LIBRARY_IT_ADMIN_EMAIL"), os.Getenv("LIBRARY_IT_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("未设置LIBRARY_IT_ADMIN_EMAIL/LIBRARY_IT_ADMIN_PASSWORD")
	}
	return Login(t, email, password)
}

// PublishTestBook 馆员入库一本书并返回图书ID
func PublishTestBook(t *testing.T, adminToken, title string, inventory int) uint {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/books", map[string]interface{}{
		"title":     title,
		"author":    "测试作者",
		"cover":     "SOFT",
		"inventory": inventory,
		"daily_fee": "0.50",
	}, adminToken)
	require.True(t, resp.OK(), "图书入库失败: %s", resp.Message)

	var book BookData
	resp.Decode(t, &book)
	return book.ID
}

// GetBook 查询图书
func GetBook(t *testing.T, id uint) BookData {
	t.Helper()
	resp := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, id), "")
	require.True(t, resp.OK(), "查询图书失败: %s", resp.Message)
	var book BookData
	resp.Decode(t, &book)
	return book
}

// Borrow 借书，预计两周后归还
func Borrow(t *testing.T, token string, bookID uint) *Response {
	t.Helper()
	return PostJSON(t, BaseURL+"/borrowings", map[string]interface{}{
		"book":                 bookID,
		"expected_return_date": time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
	}, token)
}
