package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/repository"
	"github.com/iliyamo/tenant-auth/internal/service"
)

const middlewareTestSchema = `
	CREATE TABLE users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'customer',
		tenant_id     INTEGER,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	);

	CREATE TABLE refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);
`

// newTestEnv builds a TokenService over a throwaway SQLite database and
// returns it with a seeded user id.
func newTestEnv(t *testing.T) (*service.TokenService, uint64) {
	t.Helper()

	f, err := os.CreateTemp("", "tenant-auth-mw-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(middlewareTestSchema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	u := model.User{FirstName: "Guard", LastName: "Test", Email: "guard@example.com", PasswordHash: "h", Role: model.RoleCustomer}
	userID, err := repository.NewUserRepo(db).Create(context.Background(), &u)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	svc := service.NewTokenService(priv, "test-kid", "refresh-secret", 60, 30, repository.NewTokenRepo(db))
	return svc, userID
}

// invoke runs a middleware chain against a bare request and returns the
// error plus the echo context, so tests can inspect both.
func invoke(req *http.Request, mw echo.MiddlewareFunc, next echo.HandlerFunc) (echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, mw(next)(c)
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var he *httperr.Error
	if !errors.As(err, &he) {
		t.Fatalf("error = %v, want *httperr.Error", err)
	}
	if he.Status != status {
		t.Fatalf("status = %d, want %d", he.Status, status)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	svc, _ := newTestEnv(t)
	keyfn := func(*jwt.Token) (interface{}, error) { return svc.PublicKey(), nil }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := invoke(req, Authenticate(keyfn), okHandler)
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	svc, userID := newTestEnv(t)
	keyfn := func(*jwt.Token) (interface{}, error) { return svc.PublicKey(), nil }

	raw, err := svc.GenerateAccessToken(userID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	c, err := invoke(req, Authenticate(keyfn), okHandler)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got, _ := c.Get(CtxUserID).(uint64); got != userID {
		t.Errorf("user_id in context = %d, want %d", got, userID)
	}
	if got, _ := c.Get(CtxRole).(string); got != model.RoleAdmin {
		t.Errorf("role in context = %q, want %q", got, model.RoleAdmin)
	}
}

func TestAuthenticate_Cookie(t *testing.T) {
	svc, userID := newTestEnv(t)
	keyfn := func(*jwt.Token) (interface{}, error) { return svc.PublicKey(), nil }

	raw, err := svc.GenerateAccessToken(userID, model.RoleCustomer)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: raw})
	if _, err := invoke(req, Authenticate(keyfn), okHandler); err != nil {
		t.Fatalf("Authenticate() with cookie error = %v", err)
	}
}

func TestAuthenticate_WrongKeyRejected(t *testing.T) {
	svc, userID := newTestEnv(t)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	keyfn := func(*jwt.Token) (interface{}, error) { return &other.PublicKey, nil }

	raw, err := svc.GenerateAccessToken(userID, model.RoleCustomer)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	_, err = invoke(req, Authenticate(keyfn), okHandler)
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name    string
		role    interface{}
		allowed []string
		wantErr bool
	}{
		{"admin allowed", model.RoleAdmin, []string{model.RoleAdmin}, false},
		{"customer forbidden", model.RoleCustomer, []string{model.RoleAdmin}, true},
		{"manager in wider list", model.RoleManager, []string{model.RoleAdmin, model.RoleManager}, false},
		{"missing role fails closed", nil, []string{model.RoleAdmin}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			c := e.NewContext(req, httptest.NewRecorder())
			if tc.role != nil {
				c.Set(CtxRole, tc.role)
			}
			err := CanAccess(tc.allowed...)(okHandler)(c)
			if tc.wantErr {
				wantStatus(t, err, http.StatusForbidden)
				var he *httperr.Error
				errors.As(err, &he)
				if he.Fields[0].Msg != "You don't have enough permissions to perform this action" {
					t.Errorf("msg = %q", he.Fields[0].Msg)
				}
			} else if err != nil {
				t.Fatalf("CanAccess() error = %v", err)
			}
		})
	}
}

func TestValidateRefreshToken_ActiveToken(t *testing.T) {
	svc, userID := newTestEnv(t)
	ctx := context.Background()

	jti, err := svc.PersistRefreshToken(ctx, userID)
	if err != nil {
		t.Fatalf("PersistRefreshToken() error = %v", err)
	}
	raw, err := svc.GenerateRefreshToken(userID, model.RoleCustomer, jti)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	c, err := invoke(req, ValidateRefreshToken(svc), okHandler)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if _, ok := c.Get(CtxRefreshClaims).(*service.RefreshClaims); !ok {
		t.Error("claims missing from context")
	}
}

func TestValidateRefreshToken_RevokedToken(t *testing.T) {
	svc, userID := newTestEnv(t)
	ctx := context.Background()

	jti, err := svc.PersistRefreshToken(ctx, userID)
	if err != nil {
		t.Fatalf("PersistRefreshToken() error = %v", err)
	}
	raw, err := svc.GenerateRefreshToken(userID, model.RoleCustomer, jti)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	if err := svc.DeleteRefreshToken(ctx, jti); err != nil {
		t.Fatalf("DeleteRefreshToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	_, err = invoke(req, ValidateRefreshToken(svc), okHandler)
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestParseRefreshToken_SkipsRevocationCheck(t *testing.T) {
	svc, userID := newTestEnv(t)

	// A token whose row never existed still parses; logout relies on this.
	raw, err := svc.GenerateRefreshToken(userID, model.RoleCustomer, 999)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	if _, err := invoke(req, ParseRefreshToken(svc), okHandler); err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}
}

func TestParseRefreshToken_MissingCookie(t *testing.T) {
	svc, _ := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	_, err := invoke(req, ParseRefreshToken(svc), okHandler)
	wantStatus(t, err, http.StatusUnauthorized)
}
