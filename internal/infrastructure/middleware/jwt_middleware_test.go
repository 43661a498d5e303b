package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"social_connect_server/internal/model"
	"social_connect_server/pkg/errorx"
	"social_connect_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	jwt.Init("test_secret_for_middleware", 60)
	os.Exit(m.Run())
}

type stubUserRepo struct {
	existing  map[int64]bool
	existsErr error
}

func (r *stubUserRepo) FindByID(id int64) (*model.User, error) {
	return nil, errorx.New(errorx.CodeNotFound, "user not found")
}

func (r *stubUserRepo) Exists(id int64) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.existing[id], nil
}

func (r *stubUserRepo) UpdateOnlineStatus(id int64, online bool, lastSeen time.Time) error {
	return nil
}

func (r *stubUserRepo) Create(user *model.User) error { return nil }

func newAuthRouter(repo *stubUserRepo) *gin.Engine {
	r := gin.New()
	r.GET("/protected", JWTAuth(repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetInt64("user_id")})
	})
	return r
}

func serve(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMissingToken(t *testing.T) {
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{1: true}})
	if w := serve(r, "/protected", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{1: true}})
	if w := serve(r, "/protected", "Token abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for non-Bearer scheme", w.Code)
	}
}

func TestJWTAuthValidBearer(t *testing.T) {
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{42: true}})
	token, err := jwt.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := serve(r, "/protected", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != `{"userId":42}` {
		t.Fatalf("body = %s, want user id from claims", got)
	}
}

func TestJWTAuthQueryFallback(t *testing.T) {
	// WebSocket 握手无法带 Header，走 ?token= 回落
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{42: true}})
	token, err := jwt.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if w := serve(r, "/protected?token="+token, ""); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 via query token", w.Code)
	}
}

func TestJWTAuthGarbageToken(t *testing.T) {
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{1: true}})
	if w := serve(r, "/protected", "Bearer not.a.jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestJWTAuthDeletedUser(t *testing.T) {
	// Token 有效，但用户已被删除
	r := newAuthRouter(&stubUserRepo{existing: map[int64]bool{}})
	token, err := jwt.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := serve(r, "/protected", "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for deleted user", w.Code)
	}
}

func TestJWTAuthRepoFailure(t *testing.T) {
	r := newAuthRouter(&stubUserRepo{existsErr: errorx.New(errorx.CodeDBError, "db down")})
	token, err := jwt.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if w := serve(r, "/protected", "Bearer "+token); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 when user lookup fails", w.Code)
	}
}
