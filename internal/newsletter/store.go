package newsletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals an unknown verification or unsubscribe code.
var ErrNotFound = errors.New("subscriber not found")

// Subscriber is one newsletter signup. Codes are opaque uuids mailed to the
// subscriber; possession of a code is the only authentication.
type Subscriber struct {
	ID               int
	Name             string
	Email            string
	VerificationCode string
	UnsubscribeCode  string
	Verified         bool
	CreatedAt        time.Time
	VerifiedAt       *time.Time
}

// Store persists subscribers in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const subscriberColumns = `id, name, email, verification_code, unsubscribe_code, verified, created_at, verified_at`

// Upsert inserts a subscriber or refreshes the name of an existing one,
// keeping the original codes so a re-subscribe resends the same links.
func (s *Store) Upsert(ctx context.Context, name, email string) (*Subscriber, error) {
	sub := &Subscriber{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO newsletter_subscribers (name, email, verification_code, unsubscribe_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+subscriberColumns,
		name, email, uuid.NewString(), uuid.NewString(),
	).Scan(
		&sub.ID, &sub.Name, &sub.Email, &sub.VerificationCode, &sub.UnsubscribeCode,
		&sub.Verified, &sub.CreatedAt, &sub.VerifiedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscriber: %w", err)
	}
	return sub, nil
}

func (s *Store) GetByVerificationCode(ctx context.Context, code string) (*Subscriber, error) {
	return s.getBy(ctx, "verification_code", code)
}

func (s *Store) GetByUnsubscribeCode(ctx context.Context, code string) (*Subscriber, error) {
	return s.getBy(ctx, "unsubscribe_code", code)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	return s.getBy(ctx, "email", email)
}

func (s *Store) getBy(ctx context.Context, column, value string) (*Subscriber, error) {
	sub := &Subscriber{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE `+column+` = $1`,
		value,
	).Scan(
		&sub.ID, &sub.Name, &sub.Email, &sub.VerificationCode, &sub.UnsubscribeCode,
		&sub.Verified, &sub.CreatedAt, &sub.VerifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber by %s: %w", column, err)
	}
	return sub, nil
}

// MarkVerified records the double-opt-in confirmation.
func (s *Store) MarkVerified(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE newsletter_subscribers SET verified = true, verified_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark subscriber %d verified: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a subscriber entirely; unsubscribing keeps no tombstone.
func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM newsletter_subscribers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscriber %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
