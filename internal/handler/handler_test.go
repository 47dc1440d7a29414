package handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iliyamo/tenant-auth/internal/config"
	"github.com/iliyamo/tenant-auth/internal/handler"
	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/repository"
	"github.com/iliyamo/tenant-auth/internal/router"
	"github.com/iliyamo/tenant-auth/internal/service"
)

const handlerTestSchema = `
	CREATE TABLE tenants (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		address    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'customer',
		tenant_id     INTEGER REFERENCES tenants(id) ON DELETE RESTRICT,
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

// testApp is the fully wired application over a throwaway SQLite database.
// Tests drive it through the Echo instance exactly like an HTTP client
// would.
type testApp struct {
	e       *echo.Echo
	users   *service.UserService
	tokens  *service.TokenService
	tenants *service.TenantService
	tokRepo *repository.TokenRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	f, err := os.CreateTemp("", "tenant-auth-handler-test-*.db")
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

	if _, err := db.Exec(handlerTestSchema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	keyID := config.KeyID(&priv.PublicKey)

	userRepo := repository.NewUserRepo(db)
	tenantRepo := repository.NewTenantRepo(db)
	tokRepo := repository.NewTokenRepo(db)

	// bcrypt.MinCost keeps the suite fast; the hash format is unchanged.
	credSvc := service.NewCredentialService(4)
	tokenSvc := service.NewTokenService(priv, keyID, "test-refresh-secret", 60, 30, tokRepo)
	userSvc := service.NewUserService(userRepo, credSvc)
	tenantSvc := service.NewTenantService(tenantRepo)

	e := echo.New()
	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(userSvc, tokenSvc, credSvc, "localhost"),
		Users:     handler.NewUserHandler(userSvc),
		Tenants:   handler.NewTenantHandler(tenantSvc),
		Tokens:    tokenSvc,
		VerifyKey: func(*jwt.Token) (interface{}, error) { return &priv.PublicKey, nil },
		KeyID:     keyID,
	})

	return &testApp{e: e, users: userSvc, tokens: tokenSvc, tenants: tenantSvc, tokRepo: tokRepo}
}

// do sends a JSON request through the router and returns the recorder.
func (a *testApp) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// doAs is do with a Bearer access token for the given user.
func (a *testApp) doAs(t *testing.T, userID uint64, role, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	access, err := a.tokens.GenerateAccessToken(userID, role)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set("Authorization", "Bearer "+access)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// seedUser creates a user straight through the service layer.
func (a *testApp) seedUser(t *testing.T, email, role string) model.User {
	t.Helper()

	u, err := a.users.Create(context.Background(), "Seed", "User", email, "password123", role, nil)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

// cookie returns the named Set-Cookie from a response, or nil.
func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

type errEntry struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// firstError decodes the error envelope and returns its first entry.
func firstError(t *testing.T, rec *httptest.ResponseRecorder) errEntry {
	t.Helper()

	var env struct {
		Errors []errEntry `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding error envelope: %v (body %s)", err, rec.Body.String())
	}
	if len(env.Errors) == 0 {
		t.Fatalf("empty error envelope: %s", rec.Body.String())
	}
	return env.Errors[0]
}
