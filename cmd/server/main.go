package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/config"
	"github.com/iliyamo/tenant-auth/internal/database"
	"github.com/iliyamo/tenant-auth/internal/handler"
	"github.com/iliyamo/tenant-auth/internal/repository"
	"github.com/iliyamo/tenant-auth/internal/router"
	"github.com/iliyamo/tenant-auth/internal/service"
	_ "github.com/iliyamo/tenant-auth/migrations" // registers embedded schema migrations
)

func main() {
	// .env is a convenience for local development; real deployments set
	// the environment directly and the file is simply absent.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	// Signing material.  A missing or unreadable private key is a fatal
	// configuration error; the token service cannot run without it.
	priv, err := cfg.Keys.LoadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}
	verifyKey, err := cfg.Keys.VerifyKeyfunc(ctx)
	if err != nil {
		log.Fatal(err)
	}
	keyID := config.KeyID(&priv.PublicKey)

	users := repository.NewUserRepo(db)
	tenants := repository.NewTenantRepo(db)
	tokens := repository.NewTokenRepo(db)

	credSvc := service.NewCredentialService(cfg.BcryptCost)
	tokenSvc := service.NewTokenService(priv, keyID, cfg.RefreshTokenSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, tokens)
	userSvc := service.NewUserService(users, credSvc)
	tenantSvc := service.NewTenantService(tenants)

	e := echo.New()
	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(userSvc, tokenSvc, credSvc, cfg.CookieDomain),
		Users:     handler.NewUserHandler(userSvc),
		Tenants:   handler.NewTenantHandler(tenantSvc),
		Tokens:    tokenSvc,
		VerifyKey: verifyKey,
		KeyID:     keyID,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
