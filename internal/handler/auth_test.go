package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/service"
	"github.com/bogobit/community-server-go/internal/util"
)

const testSecret = "handler-test-secret"

type authTestEnv struct {
	userRepo    *fakeUserRepo
	sessionRepo *fakeSessionRepo
	attemptRepo *fakeAttemptRepo
	hub         *fakeHub
	sessions    *service.SessionService
	handler     *AuthHandler
	router      http.Handler
}

func newAuthTestEnv() *authTestEnv {
	env := &authTestEnv{
		userRepo:    &fakeUserRepo{},
		sessionRepo: newFakeSessionRepo(),
		attemptRepo: &fakeAttemptRepo{},
		hub:         &fakeHub{},
	}
	env.sessions = service.NewSessionService(env.sessionRepo, env.hub, testSecret, time.Hour)
	guard := service.NewLoginGuard(env.attemptRepo, 5, 5*time.Minute)
	authService := service.NewAuthService(env.userRepo, env.sessions, guard)
	env.handler = NewAuthHandler(authService, env.sessions, false)

	sessionMW := middleware.NewSessionMiddleware(env.sessions)
	env.router = sessionMW.Handler(env.handler.Routes())
	return env
}

func withAlice(env *authTestEnv) {
	hash, _ := util.HashPassword("hunter42abc")
	alice := &model.User{
		ID:           7,
		Username:     "alice",
		PasswordHash: hash,
		Email:        "alice@example.com",
		DisplayName:  "Alice",
		NameColor:    "ff0000",
	}
	env.userRepo.findByUsername = func(username string) (*model.User, error) {
		if username == "alice" {
			return alice, nil
		}
		return nil, nil
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("successful login sets the session cookie", func(t *testing.T) {
		env := newAuthTestEnv()
		withAlice(env)

		body := `{"username":"alice","password":"hunter42abc"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == middleware.SessionCookie {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.Len(t, cookie.Value, 64)
		assert.True(t, cookie.HttpOnly)

		var resp struct {
			Success bool           `json:"success"`
			User    model.Identity `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(7), resp.User.UserID)
		assert.Equal(t, "Alice", resp.User.DisplayName)
	})

	t.Run("wrong password gets 401 with the generic message", func(t *testing.T) {
		env := newAuthTestEnv()
		withAlice(env)

		body := `{"username":"alice","password":"wrong-pass1"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("locked key gets 429", func(t *testing.T) {
		env := newAuthTestEnv()
		withAlice(env)
		env.attemptRepo.failures = map[string]int{"1.2.3.4/alice": 5}

		body := `{"username":"alice","password":"hunter42abc"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.RemoteAddr = "1.2.3.4:40000"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("failures from one address aggregate across connections", func(t *testing.T) {
		env := newAuthTestEnv()
		withAlice(env)

		// Five wrong passwords from the same address, each over a fresh
		// connection with a different ephemeral port.
		ports := []string{"1111", "2222", "3333", "4444", "5555"}
		for _, port := range ports {
			body := `{"username":"alice","password":"wrong-pass1"}`
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
			req.RemoteAddr = "1.2.3.4:" + port
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		require.Equal(t, 5, env.attemptRepo.failures["1.2.3.4/alice"])

		// The sixth attempt is locked out even with the right password.
		body := `{"username":"alice","password":"hunter42abc"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.RemoteAddr = "1.2.3.4:6666"
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		// A different address is untouched.
		req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.RemoteAddr = "5.6.7.8:7777"
		rec = httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		env := newAuthTestEnv()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_LoginLogoutRoundtrip(t *testing.T) {
	env := newAuthTestEnv()
	withAlice(env)

	body := `{"username":"alice","password":"hunter42abc"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Result().Cookies()[0].Value

	// /me sees the logged-in identity and counts the visit.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var meResp struct {
		User       model.Identity `json:"user"`
		VisitCount int            `json:"visitCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meResp))
	assert.True(t, meResp.User.LoggedIn)
	assert.Equal(t, 1, meResp.VisitCount)

	// Logout destroys the session and drops live connections.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.hub.disconnected, token)

	// The token no longer resolves.
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meResp))
	assert.False(t, meResp.User.LoggedIn)
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates the account", func(t *testing.T) {
		env := newAuthTestEnv()

		body := `{"username":"bob","password":"hunter42abc","email":"Bob@Example.com","displayName":"Bob"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"username":"bob"`)
		assert.Contains(t, rec.Body.String(), `"email":"bob@example.com"`)
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		env := newAuthTestEnv()

		body := `{"username":"bob","password":"short","email":"bob@example.com","displayName":"Bob"}`
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
