package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appbook "github.com/xiebiao/library/internal/application/book"
	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/application/notification"
	apppayment "github.com/xiebiao/library/internal/application/payment"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
)

// memSessions 内存版会话与黑名单
type memSessions struct {
	mu        sync.Mutex
	blacklist map[string]bool
}

func (s *memSessions) SaveSession(context.Context, uint, map[string]interface{}, time.Duration) error {
	return nil
}

func (s *memSessions) DeleteSession(context.Context, uint) error { return nil }

func (s *memSessions) AddToBlacklist(_ context.Context, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = true
	return nil
}

func (s *memSessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[token], nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notification.Message) {}

type stubGateway struct{}

func (stubGateway) CreateSession(_ context.Context, item payment.CheckoutItem) (*payment.Session, error) {
	id := fmt.Sprintf("cs_%d", item.PaymentID)
	return &payment.Session{ID: id, URL: "https://pay.example/" + id}, nil
}

func (stubGateway) ExpireSession(context.Context, string) error { return nil }

type server struct {
	engine *gin.Engine
	jwt    *jwt.Manager
	books  book.Repository
	users  user.Repository
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := zap.NewNop()
	store := memory.NewStore()
	books := memory.NewBookRepository(store)
	borrowings := memory.NewBorrowingRepository(store)
	payments := memory.NewPaymentRepository(store)
	users := memory.NewUserRepository(store)
	ledger := book.NewLedger(books)
	sessions := &memSessions{blacklist: map[string]bool{}}
	jm := jwt.NewManager("router-test", time.Hour, 24*time.Hour)
	policy := appborrowing.Policy{ReturnDateFromClient: true}

	h := Handlers{
		User: handler.NewUserHandler(appuser.NewAuthUseCase(user.NewServiceWithCost(users, bcrypt.MinCost), users, jm, sessions, log)),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(books),
			appbook.NewListBooksUseCase(books),
			appbook.NewUpdateBookUseCase(store, books),
		),
		Borrowing: handler.NewBorrowingHandler(
			appborrowing.NewCreateBorrowingUseCase(store, books, ledger, borrowings, users, payments, nopNotifier{}, policy, log),
			appborrowing.NewReturnBorrowingUseCase(store, books, ledger, borrowings, policy, log),
			appborrowing.NewQueryBorrowingsUseCase(borrowings, books, payments, policy),
			appborrowing.NewCheckOverdueUseCase(borrowings, books, users, nopNotifier{}, log),
		),
		Payment: handler.NewPaymentHandler(
			apppayment.NewManagePaymentsUseCase(payments, borrowings, books),
			apppayment.NewCheckoutUseCase(payments, borrowings, books, stubGateway{}, log),
		),
	}
	engine := New(Options{Mode: gin.TestMode, ServiceName: "library-test"}, h, middleware.NewAuthMiddleware(jm, sessions), log)
	return &server{engine: engine, jwt: jm, books: books, users: users}
}

func (s *server) token(t *testing.T, userID uint, staff bool) string {
	t.Helper()
	pair, err := s.jwt.GenerateToken(jwt.Identity{UserID: userID, Email: fmt.Sprintf("u%d@example.com", userID), IsStaff: staff})
	require.NoError(t, err)
	return pair.AccessToken
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// createBook 馆员入库一本书，返回ID
func (s *server) createBook(t *testing.T, inventory int) uint {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/books", s.token(t, 900, true), map[string]interface{}{
		"title": "Dune", "author": "Herbert", "cover": "SOFT", "inventory": inventory, "daily_fee": "0.50",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[appbook.BookView](t, env.Data).ID
}

func TestUserFlow(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{"email": "reader@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{"email": "reader@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	login := decode[appuser.LoginResponse](t, env.Data)
	require.NotEmpty(t, login.AccessToken)

	code, env = s.do(t, http.MethodGet, "/api/v1/users/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "reader@example.com", decode[appuser.UserInfo](t, env.Data).Email)

	code, _ = s.do(t, http.MethodPost, "/api/v1/users/logout", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/users/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRequired(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/borrowings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/borrowings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBooks_WritesAreStaffOnly(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/books", s.token(t, 1, false), map[string]interface{}{
		"title": "Dune", "author": "Herbert", "cover": "SOFT", "inventory": 1, "daily_fee": "0.50",
	})
	assert.Equal(t, http.StatusForbidden, code)

	id := s.createBook(t, 1)

	code, env := s.do(t, http.MethodGet, "/api/v1/books", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]appbook.BookView](t, env.Data), 1)

	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/books", s.token(t, 900, true), map[string]interface{}{
		"title": "Dune", "author": "Herbert", "cover": "PAPER", "inventory": 1, "daily_fee": "0.50",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", id), s.token(t, 900, true), nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBorrowingLifecycle(t *testing.T) {
	s := newServer(t)
	bookID := s.createBook(t, 1)
	alice := s.token(t, 1, false)
	bob := s.token(t, 2, false)
	body := map[string]interface{}{"book": bookID, "expected_return_date": "2026-12-01"}

	code, env := s.do(t, http.MethodPost, "/api/v1/borrowings", alice, body)
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[appborrowing.BorrowingView](t, env.Data)
	assert.Equal(t, uint(1), created.User)
	assert.Equal(t, 0, created.Book.Inventory)
	assert.Nil(t, created.ActualReturnDate)

	// 库存为0
	code, env = s.do(t, http.MethodPost, "/api/v1/borrowings", bob, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The book is currently unavailable.", env.Message)

	// bob看不到alice的借阅
	code, env = s.do(t, http.MethodGet, "/api/v1/borrowings?user_id=1", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]appborrowing.BorrowingView](t, env.Data))

	code, env = s.do(t, http.MethodGet, "/api/v1/borrowings?user_id=1&is_active=true", s.token(t, 900, true), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]appborrowing.BorrowingView](t, env.Data), 1)

	returnPath := fmt.Sprintf("/api/v1/borrowings/%d/return", created.ID)
	code, _ = s.do(t, http.MethodPost, returnPath, alice, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code, "归还日期来源为client时必须提供日期")

	code, env = s.do(t, http.MethodPost, returnPath, alice, map[string]string{"actual_return_date": "2026-11-20"})
	require.Equal(t, http.StatusOK, code, env.Message)
	returned := decode[appborrowing.BorrowingView](t, env.Data)
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, "2026-11-20", *returned.ActualReturnDate)

	code, _ = s.do(t, http.MethodPost, returnPath, alice, map[string]string{"actual_return_date": "2026-11-21"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/borrowings/999/return", alice, map[string]string{"actual_return_date": "2026-11-21"})
	assert.Equal(t, http.StatusNotFound, code)

	// 归还后可以再次借出
	code, _ = s.do(t, http.MethodPost, "/api/v1/borrowings", bob, body)
	assert.Equal(t, http.StatusCreated, code)
}

func TestBorrowing_BadInput(t *testing.T) {
	s := newServer(t)
	alice := s.token(t, 1, false)

	code, _ := s.do(t, http.MethodPost, "/api/v1/borrowings", alice, map[string]interface{}{"book": 1, "expected_return_date": "01/12/2026"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/borrowings", alice, map[string]interface{}{"expected_return_date": "2026-12-01"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/borrowings", alice, map[string]interface{}{"book": 404, "expected_return_date": "2026-12-01"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/borrowings/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// 不存在的借阅即使缺少归还日期也返回404
	code, _ = s.do(t, http.MethodPost, "/api/v1/borrowings/999/return", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// user_id只对馆员生效，非馆员传入非法值被忽略
	code, _ = s.do(t, http.MethodGet, "/api/v1/borrowings?user_id=abc", alice, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/borrowings?user_id=abc", s.token(t, 900, true), nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCheckOverdue_StaffOnly(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/borrowings/check-overdue", s.token(t, 1, false), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/borrowings/check-overdue", s.token(t, 900, true), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, decode[appborrowing.OverdueReport](t, env.Data).Count)
}

func TestPaymentsAndCheckout(t *testing.T) {
	s := newServer(t)
	bookID := s.createBook(t, 2)
	alice := s.token(t, 1, false)
	bob := s.token(t, 2, false)

	code, env := s.do(t, http.MethodPost, "/api/v1/borrowings", alice, map[string]interface{}{"book": bookID, "expected_return_date": "2026-12-01"})
	require.Equal(t, http.StatusCreated, code)
	b := decode[appborrowing.BorrowingView](t, env.Data)

	code, _ = s.do(t, http.MethodPost, "/api/v1/create-checkout-session", bob, map[string]uint{"borrowing_id": b.ID})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/create-checkout-session", alice, map[string]uint{"borrowing_id": b.ID})
	require.Equal(t, http.StatusOK, code, env.Message)
	checkout := decode[apppayment.CheckoutResponse](t, env.Data)
	assert.Equal(t, fmt.Sprintf("https://pay.example/cs_%d", checkout.PaymentID), checkout.SessionURL)

	paymentPath := fmt.Sprintf("/api/v1/payments/%d", checkout.PaymentID)
	code, _ = s.do(t, http.MethodGet, paymentPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/payments", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]apppayment.PaymentView](t, env.Data), 1)

	paidPath := fmt.Sprintf("/api/v1/borrowings/%d/paid", b.ID)
	code, env = s.do(t, http.MethodGet, paidPath, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[map[string]interface{}](t, env.Data)["paid"].(bool))

	code, _ = s.do(t, http.MethodPut, paymentPath, alice, map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, paidPath, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[map[string]interface{}](t, env.Data)["paid"].(bool))

	code, _ = s.do(t, http.MethodPost, "/api/v1/create-checkout-session", alice, map[string]uint{"borrowing_id": b.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/payments/fines", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]apppayment.FineView](t, env.Data))

	code, _ = s.do(t, http.MethodDelete, paymentPath, alice, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestPublicEndpoints(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/payments/success", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
