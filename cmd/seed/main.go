// Command seed provisions portal accounts. User management is out-of-band
// for the service itself, so this is the only writer of the users table.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-portal/internal/auth"
	"github.com/spec-kit/request-portal/internal/config"
	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/observability"
	"github.com/spec-kit/request-portal/internal/persistence"
	"github.com/spec-kit/request-portal/internal/repository"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	role := flag.String("role", "member", "account role (member or admin)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("usage: seed -email <email> -password <password> [-role member|admin]")
	}
	if !domain.ValidRole(domain.Role(*role)) {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pg.Close()

	users := repository.NewUserRepository(pg.PoolHandle())

	if _, err := users.GetByEmail(ctx, *email); err == nil {
		log.Fatalf("account %s already exists", *email)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Fatalf("lookup failed: %v", err)
	}

	hash, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := &domain.User{
		Email:        *email,
		PasswordHash: hash,
		Role:         domain.Role(*role),
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create account: %v", err)
	}
	log.Printf("created %s account %s (%s)", user.Role, user.Email, user.ID)
}
