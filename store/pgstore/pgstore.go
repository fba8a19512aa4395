package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/session"
)

const uniqueViolation = "23505"

// Store keeps principals and their refresh-token hash in one Postgres table.
// It implements authcore.PrincipalProvider, authcore.PrincipalCreator,
// authcore.RoleUpdater and session.Store. Sessions are keyed by principal
// only; it cannot back SessionConfig.KeyByDevice.
type Store struct {
	db *sql.DB
}

var (
	_ authcore.PrincipalProvider = (*Store)(nil)
	_ authcore.PrincipalCreator  = (*Store)(nil)
	_ authcore.RoleUpdater       = (*Store)(nil)
	_ session.Store              = (*Store)(nil)
)

// Open connects through the pgx database/sql driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the principals table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		create table if not exists principals (
			id                 text primary key,
			email              text not null unique,
			credential_hash    text not null,
			role               text not null,
			refresh_token_hash text,
			created_at         timestamptz not null default now(),
			updated_at         timestamptz not null default now()
		)`)
	return err
}

/*
====================================
PRINCIPALS
====================================
*/

func (s *Store) CreatePrincipal(ctx context.Context, email, credentialHash, role string) (authcore.Principal, error) {
	p := authcore.Principal{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		CredentialHash: credentialHash,
		Role:           role,
	}
	_, err := s.db.ExecContext(ctx, `
		insert into principals(id, email, credential_hash, role)
		values ($1, $2, $3, $4)
	`, p.ID, p.Email, p.CredentialHash, p.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authcore.Principal{}, authcore.ErrPrincipalExists
		}
		return authcore.Principal{}, err
	}
	return p, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (authcore.Principal, error) {
	return s.findOne(ctx, `
		select id, email, credential_hash, role
		from principals where email=$1
	`, strings.ToLower(email))
}

func (s *Store) FindByID(ctx context.Context, id string) (authcore.Principal, error) {
	return s.findOne(ctx, `
		select id, email, credential_hash, role
		from principals where id=$1
	`, id)
}

func (s *Store) findOne(ctx context.Context, query, arg string) (authcore.Principal, error) {
	var p authcore.Principal
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&p.ID, &p.Email, &p.CredentialHash, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return authcore.Principal{}, authcore.ErrPrincipalNotFound
	}
	if err != nil {
		return authcore.Principal{}, err
	}
	return p, nil
}

func (s *Store) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	return s.updateOne(ctx, `
		update principals set credential_hash=$2, updated_at=now() where id=$1
	`, id, hash)
}

func (s *Store) UpdateRole(ctx context.Context, id, role string) error {
	return s.updateOne(ctx, `
		update principals set role=$2, updated_at=now() where id=$1
	`, id, role)
}

func (s *Store) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authcore.ErrPrincipalNotFound
	}
	return nil
}

/*
====================================
REFRESH-TOKEN HASH
====================================
*/

// Record overwrites the principal's refresh hash. The hash lives on the
// principal row, so recording for an unknown principal fails with an error
// matching both session.ErrStoreUnavailable and authcore.ErrPrincipalNotFound.
func (s *Store) Record(ctx context.Context, principalID, hash string) error {
	res, err := s.db.ExecContext(ctx, `
		update principals set refresh_token_hash=$2 where id=$1
	`, principalID, hash)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %w", session.ErrStoreUnavailable, authcore.ErrPrincipalNotFound)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, principalID string) (string, bool, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select refresh_token_hash from principals where id=$1
	`, principalID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	if !hash.Valid || hash.String == "" {
		return "", false, nil
	}
	return hash.String, true, nil
}

// CompareAndSwap replaces the hash only while it still equals expected. The
// row lock taken by the update serialises concurrent swaps.
func (s *Store) CompareAndSwap(ctx context.Context, principalID, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `
		update principals set refresh_token_hash=$2
		where id=$1 and refresh_token_hash=$3
	`, principalID, next, expected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

func (s *Store) Invalidate(ctx context.Context, principalID string) error {
	_, err := s.db.ExecContext(ctx, `
		update principals set refresh_token_hash=null where id=$1
	`, principalID)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks connectivity to Postgres.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}
