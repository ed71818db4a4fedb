package newsletter_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"storefront-backoffice/internal/newsletter"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE TABLE newsletter_subscribers RESTART IDENTITY`); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func TestStore_SubscriptionLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := newsletter.NewStore(pool)
	ctx := context.Background()

	sub, err := store.Upsert(ctx, "Jane", "jane@example.com")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if sub.Verified {
		t.Error("fresh subscription must be unverified")
	}
	if sub.VerificationCode == "" || sub.UnsubscribeCode == "" {
		t.Error("codes must be generated on insert")
	}

	t.Run("re-subscribing keeps the original codes", func(t *testing.T) {
		again, err := store.Upsert(ctx, "Jane Doe", "jane@example.com")
		if err != nil {
			t.Fatalf("second Upsert: %v", err)
		}
		if again.ID != sub.ID {
			t.Errorf("ids differ: %d vs %d", again.ID, sub.ID)
		}
		if again.VerificationCode != sub.VerificationCode {
			t.Error("verification code must not rotate on re-subscribe")
		}
		if again.Name != "Jane Doe" {
			t.Errorf("name should update on re-subscribe, got %s", again.Name)
		}
	})

	t.Run("verification marks the row", func(t *testing.T) {
		found, err := store.GetByVerificationCode(ctx, sub.VerificationCode)
		if err != nil {
			t.Fatalf("GetByVerificationCode: %v", err)
		}
		if err := store.MarkVerified(ctx, found.ID); err != nil {
			t.Fatalf("MarkVerified: %v", err)
		}
		verified, err := store.GetByEmail(ctx, "jane@example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if !verified.Verified || verified.VerifiedAt == nil {
			t.Errorf("row not verified: %+v", verified)
		}
	})

	t.Run("unsubscribe deletes the row", func(t *testing.T) {
		if err := store.Delete(ctx, sub.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		_, err := store.GetByEmail(ctx, "jane@example.com")
		if !errors.Is(err, newsletter.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown codes yield ErrNotFound", func(t *testing.T) {
		if _, err := store.GetByUnsubscribeCode(ctx, "nope"); !errors.Is(err, newsletter.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := store.MarkVerified(ctx, 99999); !errors.Is(err, newsletter.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
