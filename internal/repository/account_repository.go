package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"forumhub/pkg/models"
)

// AccountRepository persists login credentials
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// Migrate creates the schema if it does not exist
	Migrate(ctx context.Context) error
}

const accountsSchema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a PostgreSQL account repository
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, accountsSchema); err != nil {
		return r.mapDBError(err, "migrate_accounts")
	}
	return nil
}

// Create inserts a new account; emails are stored lower-cased
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.Email = normalizeEmail(account.Email)

	err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
	).Scan(&account.CreatedAt)
	if err != nil {
		return r.mapDBError(err, "create_account")
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, "get_account_by_id", `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, "get_account_by_email", `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = $1
	`, normalizeEmail(email))
}

func (r *accountRepository) getOne(ctx context.Context, operation, query string, arg string) (*models.Account, error) {
	account := &models.Account{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, r.mapDBError(err, operation)
	}
	return account, nil
}

func (r *accountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`
	var exists bool

	if err := r.pool.QueryRow(ctx, query, normalizeEmail(email)).Scan(&exists); err != nil {
		return false, r.mapDBError(err, "check_email_exists")
	}
	return exists, nil
}

// mapDBError maps database errors to API errors
func (r *accountRepository) mapDBError(err error, operation string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewHTTPError(models.ErrCodeNotFound, "account not found", 404,
			errors.Join(models.ErrAccountNotFound, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.NewHTTPError(models.ErrCodeConflict, "email already registered", 409,
				errors.Join(models.ErrEmailExists, err))
		case "22P02": // invalid_text_representation
			return models.NewHTTPError(models.ErrCodeBadRequest, "invalid input format", 400, err)
		}
	}

	return models.NewHTTPError(models.ErrCodeInternal, "database error during "+operation, 500, err)
}

type memoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Account
	byEmail map[string]string
}

// NewMemoryAccountRepository keeps accounts in process memory, for servers
// running without PostgreSQL and for tests
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		byID:    make(map[string]models.Account),
		byEmail: make(map[string]string),
	}
}

func (r *memoryAccountRepository) Migrate(ctx context.Context) error {
	return nil
}

func (r *memoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = normalizeEmail(account.Email)
	if _, ok := r.byEmail[account.Email]; ok {
		return models.NewHTTPError(models.ErrCodeConflict, "email already registered", 409, models.ErrEmailExists)
	}
	if _, ok := r.byID[account.ID]; ok {
		return models.NewHTTPError(models.ErrCodeConflict, "resource already exists", 409, nil)
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	r.byID[account.ID] = *account
	r.byEmail[account.Email] = account.ID
	return nil
}

func (r *memoryAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, models.NewHTTPError(models.ErrCodeNotFound, "account not found", 404, models.ErrAccountNotFound)
	}
	return &account, nil
}

func (r *memoryAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[normalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, models.NewHTTPError(models.ErrCodeNotFound, "account not found", 404, models.ErrAccountNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *memoryAccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[normalizeEmail(email)]
	return ok, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
