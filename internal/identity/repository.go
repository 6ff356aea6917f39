package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrSessionExpired = errors.New("session not found or expired")
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	TouchSignIn(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateSession(ctx context.Context, token, accountID uuid.UUID, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, token uuid.UUID, now time.Time) (*User, error)
	DeleteSessions(ctx context.Context, accountID uuid.UUID) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const accountColumns = `id, email, name, phone, role, disabled, password_hash, last_sign_in_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Role,
		&u.Disabled,
		&u.PasswordHash,
		&u.LastSignInAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repository) Create(ctx context.Context, user *User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate account id: %w", err)
		}
		user.ID = id
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO accounts (id, email, name, phone, role, disabled, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Name, user.Phone, string(user.Role), user.Disabled, user.PasswordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to insert account: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select account %s: %w", id, err)
	}
	return u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select account by email: %w", err)
	}
	return u, nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query accounts: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan account: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating accounts: %w", err)
	}
	return users, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	query := `
		UPDATE accounts
		SET name = $1, phone = $2, role = $3, disabled = $4, password_hash = $5, updated_at = $6
		WHERE id = $7
	`
	cmdTag, err := r.db.Exec(ctx, query, user.Name, user.Phone, string(user.Role), user.Disabled, user.PasswordHash, now, user.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update account %s: %w", user.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete account %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) TouchSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE accounts SET last_sign_in_at = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("repository: failed to record sign in for %s: %w", id, err)
	}
	return nil
}

func (r *repository) CreateSession(ctx context.Context, token, accountID uuid.UUID, expiresAt time.Time) error {
	query := `INSERT INTO sessions (token, account_id, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, token, accountID, expiresAt); err != nil {
		return fmt.Errorf("repository: failed to insert session: %w", err)
	}
	return nil
}

func (r *repository) GetSessionUser(ctx context.Context, token uuid.UUID, now time.Time) (*User, error) {
	query := `
		SELECT a.id, a.email, a.name, a.phone, a.role, a.disabled, a.password_hash, a.last_sign_in_at, a.created_at, a.updated_at
		FROM sessions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.token = $1 AND s.expires_at > $2
	`
	u, err := scanUser(r.db.QueryRow(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("repository: failed to select session: %w", err)
	}
	return u, nil
}

func (r *repository) DeleteSessions(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("repository: failed to delete sessions for %s: %w", accountID, err)
	}
	return nil
}
