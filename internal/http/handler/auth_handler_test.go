package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Regera24/AstraMindProject/internal/adapter/oauth"
	"github.com/Regera24/AstraMindProject/internal/config"
	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/http/handler"
	httpmiddleware "github.com/Regera24/AstraMindProject/internal/http/middleware"
	"github.com/Regera24/AstraMindProject/internal/otp"
	"github.com/Regera24/AstraMindProject/internal/password"
	"github.com/Regera24/AstraMindProject/internal/service"
	"github.com/Regera24/AstraMindProject/internal/token"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]domain.Account
}

func (r *stubAccountRepo) FindByID(ctx context.Context, id int64) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return a, nil
}

func (r *stubAccountRepo) FindByUsername(ctx context.Context, username string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (r *stubAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubAccountRepo) ExistsByPhoneNumber(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (r *stubAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return account, nil
}

func (r *stubAccountRepo) SetOtp(ctx context.Context, id int64, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[id]
	a.Otp = code
	r.accounts[id] = a
	return nil
}

func (r *stubAccountRepo) ClearOtp(ctx context.Context, id int64) error {
	return r.SetOtp(ctx, id, "")
}

func (r *stubAccountRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.accounts[id]
	a.Password = hash
	a.Otp = ""
	r.accounts[id] = a
	return nil
}

type stubSessionStore struct {
	mu     sync.Mutex
	tokens map[int64]string
}

func (s *stubSessionStore) Set(ctx context.Context, id int64, tok string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[id] = tok
	return nil
}

func (s *stubSessionStore) Get(ctx context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[id], nil
}

func (s *stubSessionStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *stubSessionStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[id]
	return ok, nil
}

type stubFederator struct{}

func (stubFederator) ExchangeCode(ctx context.Context, code string) (string, error) {
	return "", domain.ErrFederationFailed
}

func (stubFederator) FetchProfile(ctx context.Context, accessToken string) (oauth.Profile, error) {
	return oauth.Profile{}, domain.ErrFederationFailed
}

type stubMailer struct{}

func (stubMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *stubAccountRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := token.NewCodec(token.Config{
		Issuer:        "az.schedule.com",
		AccessSecret:  []byte("access-secret-at-least-32-bytes!access-secret-at-least-32-bytes!"),
		AccessTTL:     time.Minute,
		RefreshSecret: []byte("refresh-secret-at-least-32-bytesrefresh-secret-at-least-32-bytes"),
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := &stubAccountRepo{accounts: make(map[int64]domain.Account)}
	otpStore := otp.NewStore(repo, time.Minute, nil)
	t.Cleanup(otpStore.Close)

	cfg := config.Config{RefreshTokenTTL: time.Hour, OTPTTL: 5 * time.Minute}
	svc := service.NewCredentialService(repo, &stubSessionStore{tokens: make(map[int64]string)},
		codec, otpStore, stubFederator{}, stubMailer{}, node, cfg, zap.NewNop())

	authHandler := &handler.AuthHandler{Svc: svc, Cfg: cfg}
	authMW := &httpmiddleware.Auth{Codec: codec}

	r := gin.New()
	group := r.Group("/api/v1/auth")
	group.POST("/login", authHandler.Login)
	group.POST("/register", authHandler.Register)
	group.POST("/refresh-token", authHandler.RefreshToken)
	group.POST("/introspect", authHandler.Introspect)
	group.GET("/check-username", authHandler.CheckUsername)
	group.GET("/me", authMW.RequireAuth, authHandler.Me)

	return r, repo
}

func seed(t *testing.T, repo *stubAccountRepo, username, email, plain string) {
	t.Helper()
	hash, err := password.Hash(plain)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), domain.Account{
		ID:       1,
		Username: username,
		Email:    email,
		Password: hash,
		IsActive: true,
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
}

func doJSON(r *gin.Engine, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, string, map[string]any) {
	t.Helper()
	var env struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code, env.Message, env.Data
}

func TestLoginEndpointSetsRefreshCookie(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"bob","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	code, _, data := decodeEnvelope(t, w)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, data["accessToken"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "refreshToken", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, "/", cookies[0].Path)
	require.Equal(t, int(time.Hour/time.Second), cookies[0].MaxAge)
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"bob","password":"nope"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	code, message, _ := decodeEnvelope(t, w)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid credentials", message)
	require.Empty(t, w.Result().Cookies())
}

func TestRefreshEndpointUsesCookie(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	login := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"bob","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := login.Result().Cookies()[0]

	w := doJSON(r, http.MethodPost, "/api/v1/auth/refresh-token", "", func(req *http.Request) {
		req.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, w.Code)

	_, _, data := decodeEnvelope(t, w)
	require.NotEmpty(t, data["accessToken"])
}

func TestRefreshEndpointWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/refresh-token", `{}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterEndpointConflict(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register",
		`{"username":"bob","password":"pw","email":"fresh@example.com"}`, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	code, message, _ := decodeEnvelope(t, w)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "username already exists", message)
}

func TestIntrospectEndpointInvalidToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/introspect", `{"token":"garbage"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, _, data := decodeEnvelope(t, w)
	require.Equal(t, false, data["valid"])
}

func TestCheckUsernameEndpoint(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	w := doJSON(r, http.MethodGet, "/api/v1/auth/check-username?username=bob", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, _, data := decodeEnvelope(t, w)
	require.Equal(t, false, data["available"])

	w = doJSON(r, http.MethodGet, "/api/v1/auth/check-username?username=carol", "", nil)
	_, _, data = decodeEnvelope(t, w)
	require.Equal(t, true, data["available"])
}

func TestMeEndpointRequiresBearerToken(t *testing.T) {
	r, repo := newTestRouter(t)
	seed(t, repo, "bob", "bob@example.com", "hunter22")

	w := doJSON(r, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	login := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"bob","password":"hunter22"}`, nil)
	_, _, data := decodeEnvelope(t, login)
	access, _ := data["accessToken"].(string)
	require.NotEmpty(t, access)

	w = doJSON(r, http.MethodGet, "/api/v1/auth/me", "", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	require.Equal(t, http.StatusOK, w.Code)
	_, _, data = decodeEnvelope(t, w)
	require.Equal(t, "bob", data["username"])
}
