//go:build integration

package auth

import (
	"context"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	database "github.com/FACorreiaa/go-item-tracker/app/db"
	"github.com/FACorreiaa/go-item-tracker/config"
	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

var (
	testAuthDB      *pgxpool.Pool
	testAuthService *AuthServiceImpl
)

func TestMain(m *testing.M) {
	if err := godotenv.Load("../../../.env.test"); err != nil {
		log.Println("Warning: .env.test file not found for auth integration tests.")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("TEST_DATABASE_URL environment variable is not set for auth integration tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := database.RunMigrations(dbURL, logger); err != nil {
		log.Fatalf("Unable to migrate test database: %v\n", err)
	}

	var err error
	testAuthDB, err = pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool for auth tests: %v\n", err)
	}

	tokens, err := NewTokenManager(config.JWTConfig{SecretKey: "integration-secret", Issuer: "item-tracker", TTL: time.Hour})
	if err != nil {
		log.Fatalf("Unable to create token manager: %v\n", err)
	}
	testAuthService = NewAuthService(NewPostgresAuthRepo(testAuthDB, logger, nil), tokens, logger, nil)
	testAuthService.hashCost = bcrypt.MinCost

	exitCode := m.Run()
	testAuthDB.Close()
	os.Exit(exitCode)
}

func clearUsersTable(t *testing.T) {
	t.Helper()
	_, err := testAuthDB.Exec(context.Background(), "DELETE FROM users")
	require.NoError(t, err, "Failed to clear users table")
}

func TestAuthServiceIntegration_RegisterLoginMe(t *testing.T) {
	clearUsersTable(t)
	ctx := context.Background()

	reg, err := testAuthService.Register(ctx, types.RegisterRequest{Email: "Ada@Example.com", Name: "Ada", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)

	_, err = testAuthService.Register(ctx, types.RegisterRequest{Email: "ADA@EXAMPLE.COM", Name: "Ada", Password: "secret1"})
	assert.ErrorIs(t, err, api.ErrConflict)

	login, err := testAuthService.Login(ctx, types.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	me, err := testAuthService.Me(ctx, types.Identity{UserID: reg.User.ID, Email: reg.User.Email})
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
}

func TestAuthRepoIntegration_UniqueEmail(t *testing.T) {
	clearUsersTable(t)
	ctx := context.Background()
	repo := NewPostgresAuthRepo(testAuthDB, slog.Default(), nil)

	_, err := repo.CreateUser(ctx, "dup@example.com", "One", "hash")
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "dup@example.com", "Two", "hash")
	assert.ErrorIs(t, err, api.ErrConflict)
}
